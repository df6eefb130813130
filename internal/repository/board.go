package repository

import (
	"context"

	"pixel-board/internal/domain"
)

// BoardRepository stores board metadata.
type BoardRepository interface {
	// FindByID returns ErrNotFound when the board does not exist.
	FindByID(ctx context.Context, id uint) (*domain.Board, error)

	// Save creates the board when its ID is zero, otherwise updates it.
	Save(ctx context.Context, board *domain.Board) error

	// ListByOwner returns the boards of a user, most recently active first.
	ListByOwner(ctx context.Context, ownerID uint) ([]domain.Board, error)

	// Delete removes a board. ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id uint) error
}
