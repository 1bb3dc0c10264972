package postgres_test

import (
	"testing"

	"github.com/samirrijal/mapbuffer/internal/adapters/postgres"
)

func TestMigrationFiles(t *testing.T) {
	up, err := postgres.MigrationFiles("up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(up) == 0 || up[0] != "migrations/001_layers.up.sql" {
		t.Errorf("unexpected up migrations %v", up)
	}

	down, err := postgres.MigrationFiles("down")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(down) != len(up) {
		t.Errorf("expected %d down migrations, got %d", len(up), len(down))
	}

	if _, err := postgres.MigrationFiles("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
