// Package db persists cluster runs, balanced assignments and allocation
// recommendations in SQLite so reports can be regenerated and runs
// compared after the fact.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the pipeline database at path and
// ensures the baseline schema exists. Later schema changes ship as
// migrations under db/migrations and are applied with MigrateUp.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cluster_runs (
			id                 TEXT PRIMARY KEY,
			period             TEXT NOT NULL,
			params             TEXT NOT NULL,
			k                  INTEGER NOT NULL,
			silhouette_before  DOUBLE NOT NULL,
			silhouette_after   DOUBLE NOT NULL,
			converged          INTEGER NOT NULL,
			violations         INTEGER NOT NULL,
			moves              INTEGER NOT NULL,
			created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS cluster_assignments (
			run_id             TEXT NOT NULL,
			store_code         TEXT NOT NULL,
			cluster_id         INTEGER NOT NULL,
			PRIMARY KEY (run_id, store_code),
			FOREIGN KEY (run_id) REFERENCES cluster_runs(id)
		);
		CREATE TABLE IF NOT EXISTS recommendations (
			run_id             TEXT NOT NULL,
			store_code         TEXT NOT NULL,
			spu_code           TEXT NOT NULL,
			action             TEXT NOT NULL,
			rule               TEXT NOT NULL,
			reason             TEXT NOT NULL,
			score              DOUBLE NOT NULL,
			PRIMARY KEY (run_id, store_code, spu_code, action),
			FOREIGN KEY (run_id) REFERENCES cluster_runs(id)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create baseline schema: %w", err)
	}

	return &DB{db}, nil
}
