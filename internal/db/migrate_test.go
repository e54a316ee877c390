package db

import (
	"os"
	"path/filepath"
	"testing"
)

// writeMigrations lays down a minimal migration pair in a temp dir so the
// tests do not depend on the repo's real migration files.
func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"0001_widgets.up.sql":   `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT);`,
		"0001_widgets.down.sql": `DROP TABLE widgets;`,
	}
	for name, sql := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0644); err != nil {
			t.Fatalf("failed to write migration %s: %v", name, err)
		}
	}
	return dir
}

func TestMigrateUpDown(t *testing.T) {
	db := setupTestDB(t)
	dir := writeMigrations(t)

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1 clean", version, dirty)
	}

	// The migrated table is usable.
	if _, err := db.Exec(`INSERT INTO widgets (name) VALUES ('x')`); err != nil {
		t.Errorf("migrated table unusable: %v", err)
	}

	if err := db.MigrateDown(dir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO widgets (name) VALUES ('y')`); err == nil {
		t.Error("widgets table should be gone after down migration")
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	dir := writeMigrations(t)

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("first MigrateUp failed: %v", err)
	}
	// Already at latest: ErrNoChange is swallowed.
	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateVersion_Fresh(t *testing.T) {
	db := setupTestDB(t)
	dir := writeMigrations(t)

	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh db version = %d dirty = %v, want 0 clean", version, dirty)
	}
}
