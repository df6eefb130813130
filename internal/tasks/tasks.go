// Package tasks defines the background task types and their payloads.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"pixel-board/internal/domain"
)

const (
	// TypeActionPersistence writes one applied edit to the action log.
	TypeActionPersistence = "action:persist"
	// TypeSnapshotPeriodicCheck archives open boards that changed enough.
	TypeSnapshotPeriodicCheck = "snapshot:periodic_check"
)

// Queue names, highest priority first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ActionPersistencePayload carries the action to save.
type ActionPersistencePayload struct {
	Action domain.Action `json:"action"`
}

// NewActionPersistenceTask wraps action in a task for the low queue.
func NewActionPersistenceTask(action domain.Action) (*asynq.Task, error) {
	payload, err := json.Marshal(ActionPersistencePayload{Action: action})
	if err != nil {
		return nil, fmt.Errorf("marshal action payload: %w", err)
	}
	return asynq.NewTask(TypeActionPersistence, payload, asynq.Queue(QueueLow), asynq.MaxRetry(5)), nil
}

// ParseActionPersistencePayload decodes a task built by NewActionPersistenceTask.
func ParseActionPersistencePayload(t *asynq.Task) (ActionPersistencePayload, error) {
	var p ActionPersistencePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal action payload: %w", err)
	}
	return p, nil
}

// NewSnapshotPeriodicCheckTask builds the scheduled archive check. It has
// no payload.
func NewSnapshotPeriodicCheckTask() *asynq.Task {
	return asynq.NewTask(TypeSnapshotPeriodicCheck, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(0))
}
