package repository

import (
	"context"

	"pixel-board/internal/domain"
)

// SnapshotRepository stores archived grid states in the database.
type SnapshotRepository interface {
	// SaveSnapshot inserts an archive.
	SaveSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot) error

	// ListSnapshots returns up to limit archives of a board, newest first.
	ListSnapshots(ctx context.Context, boardID uint, limit int) ([]domain.BoardSnapshot, error)

	// FindByID returns ErrNotFound when the archive does not exist.
	FindByID(ctx context.Context, id uint) (*domain.BoardSnapshot, error)
}
