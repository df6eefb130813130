package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository"

	"github.com/sirupsen/logrus"
)

// MaxGridSize bounds the side length a board can be created with.
const MaxGridSize = 256

// BoardService manages board metadata and ownership.
type BoardService struct {
	boardRepo       repository.BoardRepository
	stateRepo       repository.StateRepository
	defaultGridSize int
}

// NewBoardService panics on nil repositories.
func NewBoardService(boardRepo repository.BoardRepository, stateRepo repository.StateRepository, defaultGridSize int) *BoardService {
	if boardRepo == nil || stateRepo == nil {
		panic("BoardRepository and StateRepository cannot be nil for BoardService")
	}
	if defaultGridSize <= 0 {
		defaultGridSize = domain.DefaultGridSize
	}
	return &BoardService{boardRepo: boardRepo, stateRepo: stateRepo, defaultGridSize: defaultGridSize}
}

// CreateBoard stores a new board. A zero gridSize selects the default.
func (s *BoardService) CreateBoard(ctx context.Context, ownerID uint, name string, gridSize int) (*domain.Board, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": ownerID, "operation": "CreateBoard"})

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("%w: name longer than 100 characters", ErrInvalidInput)
	}
	if gridSize == 0 {
		gridSize = s.defaultGridSize
	}
	if gridSize < 1 || gridSize > MaxGridSize {
		return nil, fmt.Errorf("%w: grid size must be between 1 and %d", ErrInvalidInput, MaxGridSize)
	}

	board := &domain.Board{
		OwnerID:    ownerID,
		Name:       name,
		GridSize:   gridSize,
		LastActive: time.Now(),
	}
	if err := s.boardRepo.Save(ctx, board); err != nil {
		logCtx.WithError(err).Error("Failed to save new board")
		return nil, ErrInternalServer
	}
	logCtx.WithFields(logrus.Fields{"board_id": board.ID, "grid_size": gridSize}).Info("Board created")
	return board, nil
}

// ListBoards returns the boards owned by userID.
func (s *BoardService) ListBoards(ctx context.Context, userID uint) ([]domain.Board, error) {
	boards, err := s.boardRepo.ListByOwner(ctx, userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("Failed to list boards")
		return nil, ErrInternalServer
	}
	return boards, nil
}

// GetBoard returns the board when userID owns it.
func (s *BoardService) GetBoard(ctx context.Context, userID, boardID uint) (*domain.Board, error) {
	return authorizeBoard(ctx, s.boardRepo, userID, boardID)
}

// DeleteBoard removes the board and its live state.
func (s *BoardService) DeleteBoard(ctx context.Context, userID, boardID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "board_id": boardID, "operation": "DeleteBoard"})
	if _, err := authorizeBoard(ctx, s.boardRepo, userID, boardID); err != nil {
		return err
	}
	if err := s.boardRepo.Delete(ctx, boardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return ErrBoardNotFound
		}
		logCtx.WithError(err).Error("Failed to delete board")
		return ErrInternalServer
	}
	if err := s.stateRepo.CleanupBoardState(ctx, boardID); err != nil {
		logCtx.WithError(err).Warn("Failed to clean up board state after delete")
	}
	logCtx.Info("Board deleted")
	return nil
}

// authorizeBoard loads a board and checks that userID owns it.
func authorizeBoard(ctx context.Context, repo repository.BoardRepository, userID, boardID uint) (*domain.Board, error) {
	board, err := repo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		logrus.WithFields(logrus.Fields{"board_id": boardID, "user_id": userID}).WithError(err).Error("Failed to load board")
		return nil, ErrInternalServer
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	if !board.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return board, nil
}
