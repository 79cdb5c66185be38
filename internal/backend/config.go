package backend

import (
	"errors"
	"fmt"

	"ledgerview/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:     backendType,
		SeedFile: appConfig.SeedFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleSheetName,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,

		SyncSource: appConfig.SyncSource,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		return c.validateSheets()
	case MemoryBackend:
		// An empty seed file means an empty store.
	}
	return nil
}

// ValidateSync validates the settings the sync worker needs.
func (c Config) ValidateSync() error {
	if c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sync")
	}
	switch c.SyncSource {
	case "csv":
		if c.SeedFile == "" {
			return errors.New("SEED_FILE is required for the csv sync source")
		}
	case "sheets":
		return c.validateSheets()
	default:
		return fmt.Errorf("invalid sync source: %q", c.SyncSource)
	}
	return nil
}

func (c Config) validateSheets() error {
	if c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for sheets")
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		return errors.New("either GoogleCredentialsFile or GoogleCredentialsJSON must be provided for sheets")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend}
}
