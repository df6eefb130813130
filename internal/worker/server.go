package worker

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-board/internal/tasks"
)

// WorkerServer runs the asynq server with the board task handlers.
type WorkerServer struct {
	server   *asynq.Server
	log      *logrus.Entry
	actions  *ActionPersistenceHandler
	snapshot *SnapshotCheckHandler
}

// NewWorkerServer builds the server; Start runs it.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, concurrency int, actions *ActionPersistenceHandler, snapshot *SnapshotCheckHandler, logger *logrus.Logger) *WorkerServer {
	if actions == nil || snapshot == nil {
		panic("task handlers cannot be nil for WorkerServer")
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
				tasks.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskLogger(ctx, task).WithField("component", "worker_server").Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)

	return &WorkerServer{server: server, log: logEntry, actions: actions, snapshot: snapshot}
}

// Mux routes task types to their handlers.
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeActionPersistence, ws.actions)
	mux.Handle(tasks.TypeSnapshotPeriodicCheck, ws.snapshot)
	return mux
}

// Start runs the server until Shutdown. Call it in its own goroutine.
func (ws *WorkerServer) Start() {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(ws.Mux()); err != nil {
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown stops the server after in-flight tasks finish.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
