package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fastfish-data/merch.report/internal/merch"
)

// ErrNotFound is returned when a lookup matches no row. Callers that need
// to distinguish missing from broken should errors.Is against it.
var ErrNotFound = errors.New("not found")

// ClusterRun is one persisted execution of the clustering step. Params
// holds the pipeline config JSON so the run can be reproduced.
type ClusterRun struct {
	ID               string    `json:"id"`
	Period           string    `json:"period"`
	Params           string    `json:"params"`
	K                int       `json:"k"`
	SilhouetteBefore float64   `json:"silhouette_before"`
	SilhouetteAfter  float64   `json:"silhouette_after"`
	Converged        bool      `json:"converged"`
	Violations       int       `json:"violations"`
	Moves            int       `json:"moves"`
	CreatedAt        time.Time `json:"created_at"`
}

// SaveClusterRun stores a run and its store assignments in one
// transaction. A missing ID is filled with a fresh UUID.
func (db *DB) SaveClusterRun(run *ClusterRun, stores []merch.Store) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO cluster_runs (
			id, period, params, k, silhouette_before, silhouette_after,
			converged, violations, moves
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Period, run.Params, run.K,
		run.SilhouetteBefore, run.SilhouetteAfter,
		run.Converged, run.Violations, run.Moves,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cluster run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO cluster_assignments (run_id, store_code, cluster_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stores {
		if _, err := stmt.Exec(run.ID, s.Code, s.ClusterID); err != nil {
			return fmt.Errorf("failed to insert assignment for %s: %w", s.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cluster run: %w", err)
	}
	return nil
}

// GetClusterRun retrieves a run by ID.
func (db *DB) GetClusterRun(id string) (*ClusterRun, error) {
	var run ClusterRun
	err := db.QueryRow(
		`SELECT id, period, params, k, silhouette_before, silhouette_after,
		        converged, violations, moves, created_at
		 FROM cluster_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.Period, &run.Params, &run.K,
		&run.SilhouetteBefore, &run.SilhouetteAfter,
		&run.Converged, &run.Violations, &run.Moves, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cluster run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster run: %w", err)
	}
	return &run, nil
}

// ListClusterRuns returns the most recent runs, newest first. A period
// filter of "" lists runs for every period.
func (db *DB) ListClusterRuns(periodFilter string, limit int) ([]ClusterRun, error) {
	query := `SELECT id, period, params, k, silhouette_before, silhouette_after,
	                 converged, violations, moves, created_at
	          FROM cluster_runs`
	args := []interface{}{}
	if periodFilter != "" {
		query += ` WHERE period = ?`
		args = append(args, periodFilter)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster runs: %w", err)
	}
	defer rows.Close()

	var runs []ClusterRun
	for rows.Next() {
		var run ClusterRun
		if err := rows.Scan(
			&run.ID, &run.Period, &run.Params, &run.K,
			&run.SilhouetteBefore, &run.SilhouetteAfter,
			&run.Converged, &run.Violations, &run.Moves, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cluster run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Assignment is one store's cluster membership within a run.
type Assignment struct {
	StoreCode string `json:"store_code"`
	ClusterID int    `json:"cluster_id"`
}

// GetAssignments returns a run's assignments ordered by store code.
func (db *DB) GetAssignments(runID string) ([]Assignment, error) {
	rows, err := db.Query(
		`SELECT store_code, cluster_id FROM cluster_assignments
		 WHERE run_id = ? ORDER BY store_code`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.StoreCode, &a.ClusterID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
