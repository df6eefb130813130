package service

import (
	"context"
	"errors"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository"

	"github.com/sirupsen/logrus"
)

// lastSnapshotTTL bounds how long the archive timestamp of a board is kept.
const lastSnapshotTTL = 24 * time.Hour

// GridSource yields the live grid of a board. EditorService implements it.
type GridSource interface {
	CurrentGrid(ctx context.Context, boardID uint) (domain.Snapshot, error)
}

// SnapshotService archives board grids to the database.
type SnapshotService struct {
	snapshotRepo repository.SnapshotRepository // archive rows
	stateRepo    repository.StateRepository    // grid record, version and archive timestamps
	actionRepo   repository.ActionRepository   // edit counts since the last archive
	grids        GridSource
	now          func() time.Time
}

// NewSnapshotService panics on nil dependencies.
func NewSnapshotService(
	snapshotRepo repository.SnapshotRepository,
	stateRepo repository.StateRepository,
	actionRepo repository.ActionRepository,
	grids GridSource,
) *SnapshotService {
	if snapshotRepo == nil || stateRepo == nil || actionRepo == nil || grids == nil {
		panic("SnapshotService dependencies cannot be nil")
	}
	return &SnapshotService{
		snapshotRepo: snapshotRepo,
		stateRepo:    stateRepo,
		actionRepo:   actionRepo,
		grids:        grids,
		now:          time.Now,
	}
}

// CheckAndGenerateSnapshot archives the board when enough edits happened
// since the last archive. It returns the archive time in effect afterwards.
func (s *SnapshotService) CheckAndGenerateSnapshot(ctx context.Context, boardID uint) (time.Time, error) {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": boardID, "operation": "CheckAndGenerateSnapshot"})

	last, err := s.stateRepo.GetLastSnapshotTime(ctx, boardID)
	if err != nil {
		// treat as never archived
		logCtx.WithError(err).Warn("Failed to read last snapshot time")
		last = time.Time{}
	}

	opCount, err := s.actionRepo.GetCountSince(ctx, boardID, last)
	if err != nil {
		logCtx.WithError(err).Error("Failed to get action count since last snapshot")
		return last, ErrInternalServer
	}
	if !last.IsZero() && opCount == 0 {
		logCtx.Debug("No edits since last snapshot")
		return last, nil
	}

	interval := calculateSnapshotInterval(int(opCount))
	if !shouldGenerateSnapshot(last, interval, s.now()) {
		logCtx.Debugf("Snapshot condition not met (Last: %s, Interval: %s, OpsSince: %d)",
			last.Format(time.RFC3339), interval, opCount)
		return last, nil
	}

	logCtx.Info("Snapshot condition met, generating snapshot")
	snap, err := s.generateSnapshot(ctx, boardID)
	if err != nil {
		// keep the old timestamp so the next run retries sooner
		return last, err
	}
	return snap.CreatedAt, nil
}

// ArchiveNow archives the current grid of a board unconditionally.
func (s *SnapshotService) ArchiveNow(ctx context.Context, boardID uint) (*domain.BoardSnapshot, error) {
	return s.generateSnapshot(ctx, boardID)
}

// ListSnapshots returns the newest archives of a board.
func (s *SnapshotService) ListSnapshots(ctx context.Context, boardID uint, limit int) ([]domain.BoardSnapshot, error) {
	snaps, err := s.snapshotRepo.ListSnapshots(ctx, boardID, limit)
	if err != nil {
		logrus.WithField("board_id", boardID).WithError(err).Error("Failed to list snapshots")
		return nil, ErrInternalServer
	}
	return snaps, nil
}

// GetSnapshot returns an archive and its decoded grid. An archive of
// another board reads as not found.
func (s *SnapshotService) GetSnapshot(ctx context.Context, boardID, snapshotID uint) (*domain.BoardSnapshot, domain.Snapshot, error) {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": boardID, "snapshot_id": snapshotID, "operation": "GetSnapshot"})

	archived, err := s.snapshotRepo.FindByID(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, domain.Snapshot{}, ErrSnapshotNotFound
		}
		logCtx.WithError(err).Error("Failed to load snapshot")
		return nil, domain.Snapshot{}, ErrInternalServer
	}
	if archived.BoardID != boardID {
		return nil, domain.Snapshot{}, ErrSnapshotNotFound
	}
	grid, err := archived.ParseState()
	if err != nil {
		logCtx.WithError(err).Error("Archived grid is corrupt")
		return nil, domain.Snapshot{}, ErrInternalServer
	}
	return archived, grid, nil
}

// generateSnapshot writes the live grid to the archive table and to the
// working copy. The saved grid record is left to explicit saves.
func (s *SnapshotService) generateSnapshot(ctx context.Context, boardID uint) (*domain.BoardSnapshot, error) {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": boardID, "operation": "generateSnapshot"})

	grid, err := s.grids.CurrentGrid(ctx, boardID)
	if err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return nil, err
		}
		logCtx.WithError(err).Error("Snapshot: failed to read live grid")
		return nil, ErrInternalServer
	}
	version, err := s.stateRepo.GetCurrentVersion(ctx, boardID)
	if err != nil {
		logCtx.WithError(err).Warn("Snapshot: failed to get current version, recording 0")
	}

	archived := &domain.BoardSnapshot{
		BoardID:   boardID,
		Version:   version,
		CreatedAt: s.now().UTC(),
	}
	if err := archived.SetState(grid); err != nil {
		logCtx.WithError(err).Error("Snapshot: failed to encode grid")
		return nil, ErrInternalServer
	}
	if err := s.snapshotRepo.SaveSnapshot(ctx, archived); err != nil {
		logCtx.WithError(err).Error("Snapshot: failed to save snapshot")
		return nil, ErrInternalServer
	}

	if err := s.stateRepo.SaveWorkingGrid(ctx, boardID, []byte(archived.Data)); err != nil {
		logCtx.WithError(err).Warn("Snapshot: failed to update working grid")
	}
	if err := s.stateRepo.SetLastSnapshotTime(ctx, boardID, archived.CreatedAt, lastSnapshotTTL); err != nil {
		logCtx.WithError(err).Warn("Snapshot: failed to record snapshot time")
	}

	logCtx.WithFields(logrus.Fields{"snapshot_id": archived.ID, "version": version}).Info("Snapshot generated and saved")
	return archived, nil
}

func calculateSnapshotInterval(opCountSinceLast int) time.Duration {
	if opCountSinceLast > 100 {
		return 30 * time.Second
	} else if opCountSinceLast > 20 {
		return 2 * time.Minute
	}
	return 10 * time.Minute
}

func shouldGenerateSnapshot(lastSnapshotTime time.Time, interval time.Duration, now time.Time) bool {
	return lastSnapshotTime.IsZero() || now.Sub(lastSnapshotTime) >= interval
}
