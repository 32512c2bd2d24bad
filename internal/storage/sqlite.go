package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"digest_curator/internal/model"
	"digest_curator/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores the current record set of a curation session.
func (s *SQLite) SaveSnapshot(ctx context.Context, issue int, records []model.DigestRecord) (int64, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (digest_issue, created_at, payload) VALUES (?, ?, ?)`,
		issue, now, payload,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ListSnapshots returns snapshot metadata for a digest issue, newest first.
func (s *SQLite) ListSnapshots(ctx context.Context, issue int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, digest_issue, created_at FROM snapshots WHERE digest_issue = ? ORDER BY id DESC`,
		issue,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.DigestIssue, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.CreatedAt, _ = time.Parse(timeLayout, created)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// LoadSnapshot restores the record set stored in a snapshot.
func (s *SQLite) LoadSnapshot(ctx context.Context, id int64) ([]model.DigestRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE id = ?`, id,
	).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", id, err)
	}
	var records []model.DigestRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", id, err)
	}
	return records, nil
}
