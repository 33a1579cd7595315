package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finvue/internal/config"
	"finvue/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
	if err == nil || !strings.Contains(err.Error(), "[sqlite memory]") {
		t.Fatalf("expected error listing valid backends, got %v", err)
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "seed"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "seed" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	seed := "expense: Pets\n# comment\n\nincome: Tips\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	if err := res.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	tax, found, err := store.NewJSONPersister(res.KV).LoadTaxonomy(context.Background())
	if err != nil || !found {
		t.Fatalf("seeded taxonomy missing: found=%v err=%v", found, err)
	}
	if !tax.Has("expense", "Pets") || !tax.Has("income", "Tips") {
		t.Fatalf("unexpected taxonomy %v", tax)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "finvue.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	ctx := context.Background()
	if err := res.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := res.KV.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := res.KV.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get = %q %v %v", got, ok, err)
	}
}
