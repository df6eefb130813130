package repository

import (
	"context"

	"pixel-board/internal/domain"
)

// UserRepository stores user accounts.
type UserRepository interface {
	// FindByUsername returns ErrNotFound when no user has that name.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID returns ErrNotFound when the user does not exist.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save creates the user when its ID is zero, otherwise updates it.
	Save(ctx context.Context, user *domain.User) error
}
