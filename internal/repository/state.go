package repository

import (
	"context"
	"time"
)

// StateRepository holds the live state of boards, backed by Redis.
type StateRepository interface {
	// === Grid record ===

	// LoadGrid returns the persisted encoded grid of a board, or
	// ErrNotFound when nothing has been saved yet.
	LoadGrid(ctx context.Context, boardID uint) ([]byte, error)

	// SaveGrid overwrites the persisted encoded grid of a board.
	SaveGrid(ctx context.Context, boardID uint, data []byte) error

	// DeleteGrid removes the persisted grid and the working copy. Missing
	// keys are not an error.
	DeleteGrid(ctx context.Context, boardID uint) error

	// LoadWorkingGrid returns the last archived state of an open board, or
	// ErrNotFound. Unlike the grid record it changes without a save.
	LoadWorkingGrid(ctx context.Context, boardID uint) ([]byte, error)

	// SaveWorkingGrid overwrites the working copy of a board.
	SaveWorkingGrid(ctx context.Context, boardID uint, data []byte) error

	// === Versioning ===

	// GetCurrentVersion returns 0 when the board has no version yet.
	GetCurrentVersion(ctx context.Context, boardID uint) (uint, error)

	// IncrementVersion atomically bumps the version and returns the new one.
	IncrementVersion(ctx context.Context, boardID uint) (uint, error)

	// CleanupBoardState removes every key of a board.
	CleanupBoardState(ctx context.Context, boardID uint) error

	// === Rate limiting ===

	// CheckRateLimit increments the counter of key and reports whether it
	// went over limit within duration.
	CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error)

	// === Archive worker state ===

	// GetLastSnapshotTime returns the zero time when no archive was recorded.
	GetLastSnapshotTime(ctx context.Context, boardID uint) (time.Time, error)

	// SetLastSnapshotTime records when a board was last archived.
	SetLastSnapshotTime(ctx context.Context, boardID uint, timestamp time.Time, ttl time.Duration) error
}
