package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository"
)

// GormBoardRepository implements repository.BoardRepository on GORM.
type GormBoardRepository struct {
	db *gorm.DB
}

// NewGormBoardRepository panics on a nil db.
func NewGormBoardRepository(db *gorm.DB) *GormBoardRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBoardRepository")
	}
	return &GormBoardRepository{db: db}
}

func (r *GormBoardRepository) FindByID(ctx context.Context, id uint) (*domain.Board, error) {
	var board domain.Board
	err := r.db.WithContext(ctx).First(&board, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBoardNotFound
		}
		return nil, fmt.Errorf("gorm: find board by id %d: %w", id, err)
	}
	return &board, nil
}

func (r *GormBoardRepository) Save(ctx context.Context, board *domain.Board) error {
	err := r.db.WithContext(ctx).Save(board).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save board (id: %d, name: %s): %w", board.ID, board.Name, err)
	}
	return nil
}

func (r *GormBoardRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Board, error) {
	var boards []domain.Board
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("last_active DESC").
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list boards of user %d: %w", ownerID, err)
	}
	return boards, nil
}

func (r *GormBoardRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Board{}, id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete board %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrBoardNotFound
	}
	return nil
}
