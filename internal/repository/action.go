package repository

import (
	"context"
	"time"

	"pixel-board/internal/domain"
)

// ActionRepository stores the edit log of boards.
type ActionRepository interface {
	// SaveBatch persists actions in one go.
	SaveBatch(ctx context.Context, actions []domain.Action) error

	// GetCountSince counts the actions of a board after timestamp.
	// The archive worker uses it to decide how often to archive.
	GetCountSince(ctx context.Context, boardID uint, timestamp time.Time) (int64, error)
}
