// Package storage persists curation session backups. The remote store is
// the system of record; backups only guard against losing an interactive
// session's answers before they are uploaded.
package storage

import (
	"context"
	"time"

	"digest_curator/internal/model"
)

// Snapshot is one saved curation state.
type Snapshot struct {
	ID          int64
	DigestIssue int
	CreatedAt   time.Time
}

// Storage is the interface for backup persistence.
type Storage interface {
	SaveSnapshot(ctx context.Context, issue int, records []model.DigestRecord) (int64, error)
	ListSnapshots(ctx context.Context, issue int) ([]Snapshot, error)
	LoadSnapshot(ctx context.Context, id int64) ([]model.DigestRecord, error)
	Close() error
}
