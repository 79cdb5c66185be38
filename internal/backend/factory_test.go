package backend

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledgerview/internal/config"
	"ledgerview/internal/log"
	"ledgerview/internal/source"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Output: &bytes.Buffer{}}))
}

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "id,date,amount,kind,category,merchant\n1,2024-03-04,100,debit,Food,Bistro\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sheets",
		GoogleSpreadsheetID: "abc",
		GoogleSheetName:     "Ledger",
		SyncSource:          "sheets",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.GoogleSheetName != "Ledger" || cfg.SyncSource != "sheets" {
		t.Fatalf("unexpected backend config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory without seed", Config{Type: MemoryBackend}, ""},
		{"invalid type", Config{Type: "mongo"}, "invalid backend type"},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"sheets without id", Config{Type: SheetsBackend, GoogleCredentialsJSON: "{}"}, "Spreadsheet ID is required"},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x"}, "GoogleCredentialsFile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: writeSeed(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()

	raws, err := res.Reader.ReadTransactions(context.Background())
	if err != nil || len(raws) != 1 || raws[0].Merchant != "Bistro" {
		t.Fatalf("unexpected records: %+v err=%v", raws, err)
	}
	if res.Name != "memory" || res.Ready != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	res, err := testFactory().CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "data", "ledgerview.db"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Close()

	if err := res.Ready(context.Background()); err != nil {
		t.Fatalf("sqlite backend should be ready: %v", err)
	}
	raws, err := res.Reader.ReadTransactions(context.Background())
	if err != nil || len(raws) != 0 {
		t.Fatalf("fresh database should be empty: %v err=%v", raws, err)
	}
}

func TestCreateSyncSource(t *testing.T) {
	seed := writeSeed(t)
	res, err := testFactory().CreateSyncSource(context.Background(), Config{
		SyncSource:   "csv",
		SeedFile:     seed,
		SQLiteDBPath: filepath.Join(t.TempDir(), "x.db"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, ok := res.Reader.(source.CSVFile); !ok || f.Path != seed {
		t.Fatalf("expected a CSVFile reader, got %T", res.Reader)
	}

	_, err = testFactory().CreateSyncSource(context.Background(), Config{SyncSource: "csv", SQLiteDBPath: "x.db"})
	if err == nil || !strings.Contains(err.Error(), "SEED_FILE") {
		t.Fatalf("expected missing seed error, got %v", err)
	}

	_, err = testFactory().CreateSyncSource(context.Background(), Config{SyncSource: "ftp", SQLiteDBPath: "x.db"})
	if err == nil {
		t.Fatal("expected invalid source error")
	}
}
