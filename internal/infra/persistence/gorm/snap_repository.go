package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository"
)

// GormSnapshotRepository implements repository.SnapshotRepository on GORM.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository panics on a nil db.
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSnapshotRepository")
	}
	return &GormSnapshotRepository{db: db}
}

// SaveSnapshot always inserts; archives are never updated.
func (r *GormSnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *domain.BoardSnapshot) error {
	if err := r.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("gorm: failed to save snapshot (board %d, version %d): %w", snapshot.BoardID, snapshot.Version, err)
	}
	return nil
}

func (r *GormSnapshotRepository) ListSnapshots(ctx context.Context, boardID uint, limit int) ([]domain.BoardSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	var snapshots []domain.BoardSnapshot
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: failed to list snapshots for board %d: %w", boardID, err)
	}
	return snapshots, nil
}

func (r *GormSnapshotRepository) FindByID(ctx context.Context, id uint) (*domain.BoardSnapshot, error) {
	var snapshot domain.BoardSnapshot
	if err := r.db.WithContext(ctx).First(&snapshot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("gorm: find snapshot by id %d: %w", id, err)
	}
	return &snapshot, nil
}
