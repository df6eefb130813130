package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository"
	"pixel-board/internal/tasks"
)

// ActionPersistenceHandler writes applied edits to the action log.
type ActionPersistenceHandler struct {
	actionRepo repository.ActionRepository
}

// NewActionPersistenceHandler panics on a nil repository.
func NewActionPersistenceHandler(actionRepo repository.ActionRepository) *ActionPersistenceHandler {
	if actionRepo == nil {
		panic("ActionRepository cannot be nil for ActionPersistenceHandler")
	}
	return &ActionPersistenceHandler{actionRepo: actionRepo}
}

// ProcessTask implements asynq.Handler.
func (h *ActionPersistenceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)
	logCtx.Debug("Processing action persistence task...")

	payload, err := tasks.ParseActionPersistencePayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Action.BoardID == 0 {
		logCtx.Error("Action payload has no board id")
		return fmt.Errorf("action without board id: %w", asynq.SkipRetry)
	}

	if err := h.actionRepo.SaveBatch(ctx, []domain.Action{payload.Action}); err != nil {
		logCtx.WithError(err).Errorf("Failed to save action for board %d version %d", payload.Action.BoardID, payload.Action.Version)
		return fmt.Errorf("failed to save action %d: %w", payload.Action.Version, err)
	}

	logCtx.WithFields(logrus.Fields{
		"board_id":       payload.Action.BoardID,
		"action_version": payload.Action.Version,
	}).Info("Action persistence task processed successfully")
	return nil
}

// taskLogger returns an entry carrying the task id, type and retry state.
func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	queue, _ := asynq.GetQueueName(ctx)
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"queue":     queue,
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
}
