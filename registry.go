package reviews

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite" // Pure Go SQLite driver
)

// Registry is a SQLite catalogue of saved checkpoints.
type Registry struct {
	db *sql.DB
}

// OpenRegistry opens (creating if needed) the registry database at path.
func OpenRegistry(path string) (*Registry, error) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// The driver name for github.com/glebarez/sqlite is "sqlite"
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS checkpoints (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"name" TEXT NOT NULL,
		"path" TEXT NOT NULL UNIQUE,
		"run_id" TEXT,
		"loss" REAL,
		"accuracy" REAL,
		"created_at" DATETIME NOT NULL
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Record stores cp, replacing any earlier entry for the same path.
func (r *Registry) Record(cp Checkpoint) (int64, error) {
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	insertSQL := `INSERT INTO checkpoints(name, path, run_id, loss, accuracy, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			run_id = excluded.run_id,
			loss = excluded.loss,
			accuracy = excluded.accuracy,
			created_at = excluded.created_at`
	result, err := r.db.Exec(insertSQL, cp.Name, cp.Path, cp.RunID, cp.Loss, cp.Accuracy, cp.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record checkpoint: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// List returns all checkpoints, oldest first.
func (r *Registry) List() ([]Checkpoint, error) {
	rows, err := r.db.Query(`SELECT name, path, run_id, loss, accuracy, created_at
		FROM checkpoints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Latest returns the most recently recorded checkpoint, or sql.ErrNoRows.
func (r *Registry) Latest() (Checkpoint, error) {
	row := r.db.QueryRow(`SELECT name, path, run_id, loss, accuracy, created_at
		FROM checkpoints ORDER BY id DESC LIMIT 1`)
	return scanCheckpoint(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(s scanner) (Checkpoint, error) {
	var cp Checkpoint
	var runID sql.NullString
	if err := s.Scan(&cp.Name, &cp.Path, &runID, &cp.Loss, &cp.Accuracy, &cp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, err
		}
		return Checkpoint{}, fmt.Errorf("failed to scan checkpoint: %w", err)
	}
	cp.RunID = runID.String
	return cp, nil
}
