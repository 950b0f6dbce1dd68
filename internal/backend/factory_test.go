package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"purchases/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}

	cfg := &config.Config{DataBackend: "xlsx", DataFile: "data/p.xlsx", DataSheet: "Sheet2", SeedDir: "seed"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != XLSXBackend || bc.DataFile != "data/p.xlsx" || bc.DataSheet != "Sheet2" || bc.DataDirectory != "seed" {
		t.Errorf("unexpected backend config: %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"xlsx ok", Config{Type: XLSXBackend, DataFile: "a.xlsx"}, ""},
		{"xlsx missing file", Config{Type: XLSXBackend}, "data file is required"},
		{"sqlite missing path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"sheets missing id", Config{Type: SheetsBackend}, "Google Spreadsheet ID is required"},
		{"memory ok", Config{Type: MemoryBackend}, ""},
		{"invalid", Config{Type: "csv"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	t.Run("memory falls back to sample", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if res.Source.SourceID() != "memory:sample" {
			t.Errorf("source = %q", res.Source.SourceID())
		}
		if err := res.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: XLSXBackend, DataFile: "data/purchases.xlsx"})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if res.Source.SourceID() != "xlsx:data/purchases.xlsx" {
			t.Errorf("source = %q", res.Source.SourceID())
		}
		if res.Repository != nil {
			t.Error("xlsx backend has no repository")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "p.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Close()
		if res.Repository == nil || res.Source.SourceID() != "sqlite:"+path {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, err := f.CreateBackend(ctx, Config{Type: SheetsBackend}); err == nil {
			t.Error("expected validation error")
		}
	})
}
