package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-board/internal/domain"
)

// DefaultMaxIdle is how long an editing session may sit unused before the
// periodic check archives and closes it.
const DefaultMaxIdle = 30 * time.Minute

// BoardSessions is the part of the editor service the check walks.
type BoardSessions interface {
	ActiveBoardIDs() []uint
	IdleBoardIDs(maxIdle time.Duration, keep map[uint]bool) []uint
	Close(boardID uint)
}

// SnapshotArchiver is the part of the snapshot service the check uses.
type SnapshotArchiver interface {
	CheckAndGenerateSnapshot(ctx context.Context, boardID uint) (time.Time, error)
	ArchiveNow(ctx context.Context, boardID uint) (*domain.BoardSnapshot, error)
}

// ConnectionTracker reports boards with a live editing connection.
type ConnectionTracker interface {
	ConnectedBoards() map[uint]bool
}

// SnapshotCheckHandler archives open boards on a schedule and closes
// sessions nobody uses any more.
type SnapshotCheckHandler struct {
	sessions  BoardSessions
	snapshots SnapshotArchiver
	connected ConnectionTracker
	maxIdle   time.Duration
}

// NewSnapshotCheckHandler panics on nil dependencies. A non-positive
// maxIdle selects DefaultMaxIdle.
func NewSnapshotCheckHandler(sessions BoardSessions, snapshots SnapshotArchiver, connected ConnectionTracker, maxIdle time.Duration) *SnapshotCheckHandler {
	if sessions == nil || snapshots == nil || connected == nil {
		panic("SnapshotCheckHandler dependencies cannot be nil")
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &SnapshotCheckHandler{sessions: sessions, snapshots: snapshots, connected: connected, maxIdle: maxIdle}
}

// ProcessTask implements asynq.Handler. Failures of single boards are
// logged; the periodic task itself always completes.
func (h *SnapshotCheckHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)
	logCtx.Info("Processing periodic snapshot check task...")

	boardIDs := h.sessions.ActiveBoardIDs()
	if len(boardIDs) == 0 {
		logCtx.Info("No open boards found, skipping snapshot check.")
		return nil
	}
	logCtx.Infof("Found %d open boards to check.", len(boardIDs))

	var wg sync.WaitGroup
	var errs []error
	var errMu sync.Mutex

	for _, boardID := range boardIDs {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if _, err := h.snapshots.CheckAndGenerateSnapshot(checkCtx, id); err != nil {
				logCtx.WithField("board_id", id).WithError(err).Error("Snapshot check/generation failed for board")
				errMu.Lock()
				errs = append(errs, fmt.Errorf("board %d: %w", id, err))
				errMu.Unlock()
			}
		}(boardID)
	}
	wg.Wait()

	closed := h.closeIdle(ctx, logCtx)

	if len(errs) > 0 {
		logCtx.Errorf("Snapshot check completed with %d errors.", len(errs))
		return nil
	}
	logCtx.WithField("closed_sessions", closed).Info("Periodic snapshot check task completed successfully.")
	return nil
}

// closeIdle archives each idle session once more and closes it. A session
// whose archive fails stays open for the next run.
func (h *SnapshotCheckHandler) closeIdle(ctx context.Context, logCtx *logrus.Entry) int {
	closed := 0
	for _, id := range h.sessions.IdleBoardIDs(h.maxIdle, h.connected.ConnectedBoards()) {
		archiveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := h.snapshots.ArchiveNow(archiveCtx, id)
		cancel()
		if err != nil {
			logCtx.WithField("board_id", id).WithError(err).Warn("Failed to archive idle board, keeping session")
			continue
		}
		h.sessions.Close(id)
		closed++
		logCtx.WithField("board_id", id).Info("Idle editing session closed")
	}
	return closed
}
