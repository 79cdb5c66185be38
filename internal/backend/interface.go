package backend

import (
	"context"

	"ledgerview/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether a backend can currently serve reads.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the reader and its lifecycle hooks. Cleanup and
// Ready may be nil.
type BackendResult struct {
	Name    string
	Reader  source.TransactionReader
	Cleanup CleanupFunc
	Ready   ReadyFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store charts are read from.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSyncSource opens the source the sync worker imports from.
	CreateSyncSource(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend seed and csv sync source
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Sync source: "csv" or "sheets"
	SyncSource string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
