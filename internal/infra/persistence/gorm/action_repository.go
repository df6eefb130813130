package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pixel-board/internal/domain"
)

// actionBatchSize bounds the rows per INSERT statement.
const actionBatchSize = 500

// GormActionRepository implements repository.ActionRepository on GORM.
type GormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository panics on a nil db.
func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActionRepository")
	}
	return &GormActionRepository{db: db}
}

func (r *GormActionRepository) SaveBatch(ctx context.Context, actions []domain.Action) error {
	if len(actions) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).CreateInBatches(&actions, actionBatchSize).Error
	if err != nil {
		return fmt.Errorf("gorm: failed to save action batch (size %d): %w", len(actions), err)
	}
	return nil
}

// GetCountSince counts every action of the board when timestamp is zero.
func (r *GormActionRepository) GetCountSince(ctx context.Context, boardID uint, timestamp time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Action{}).Where("board_id = ?", boardID)
	if !timestamp.IsZero() {
		query = query.Where("timestamp > ?", timestamp)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: failed to count actions for board %d since %v: %w", boardID, timestamp, err)
	}
	return count, nil
}
