package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/repository/mocks"
	"pixel-board/internal/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActionPersistenceHandler_SavesAction(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewActionPersistenceHandler(repo)

	action := domain.Action{BoardID: 7, UserID: 1, ActionType: domain.ActionPaint, Version: 3, Timestamp: time.Now().UTC()}
	require.NoError(t, action.SetData(domain.EditData{Index: 4, Color: "#ff0000", Changed: 1}))
	task, err := tasks.NewActionPersistenceTask(action)
	require.NoError(t, err)

	repo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(actions []domain.Action) bool {
		return len(actions) == 1 && actions[0].BoardID == 7 && actions[0].Version == 3 && actions[0].Data == action.Data
	})).Return(nil).Once()

	require.NoError(t, h.ProcessTask(context.Background(), task))
}

func TestActionPersistenceHandler_Failures(t *testing.T) {
	repo := mocks.NewActionRepository(t)
	h := NewActionPersistenceHandler(repo)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeActionPersistence, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	task, err := tasks.NewActionPersistenceTask(domain.Action{ActionType: domain.ActionPaint})
	require.NoError(t, err)
	assert.True(t, errors.Is(h.ProcessTask(context.Background(), task), asynq.SkipRetry))

	task, err = tasks.NewActionPersistenceTask(domain.Action{BoardID: 7, ActionType: domain.ActionClear})
	require.NoError(t, err)
	repo.On("SaveBatch", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	err = h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry), "database errors are retried")
}

type fakeSessions struct {
	mu     sync.Mutex
	active []uint
	idle   []uint
	keep   map[uint]bool
	closed []uint
}

func (f *fakeSessions) ActiveBoardIDs() []uint { return f.active }

func (f *fakeSessions) IdleBoardIDs(maxIdle time.Duration, keep map[uint]bool) []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keep = keep
	var out []uint
	for _, id := range f.idle {
		if !keep[id] {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeSessions) Close(boardID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, boardID)
}

type fakeArchiver struct {
	mu       sync.Mutex
	checked  []uint
	archived []uint
	failFor  map[uint]bool
}

func (f *fakeArchiver) CheckAndGenerateSnapshot(ctx context.Context, boardID uint) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, boardID)
	if f.failFor[boardID] {
		return time.Time{}, errors.New("archive failed")
	}
	return time.Now(), nil
}

func (f *fakeArchiver) ArchiveNow(ctx context.Context, boardID uint) (*domain.BoardSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[boardID] {
		return nil, errors.New("archive failed")
	}
	f.archived = append(f.archived, boardID)
	return &domain.BoardSnapshot{BoardID: boardID}, nil
}

type fakeConnections map[uint]bool

func (f fakeConnections) ConnectedBoards() map[uint]bool { return f }

func TestSnapshotCheckHandler_ChecksEveryOpenBoard(t *testing.T) {
	sessions := &fakeSessions{active: []uint{1, 2, 3}, idle: []uint{2, 3}}
	archiver := &fakeArchiver{failFor: map[uint]bool{2: true}}
	h := NewSnapshotCheckHandler(sessions, archiver, fakeConnections{3: true}, time.Minute)

	require.NoError(t, h.ProcessTask(context.Background(), tasks.NewSnapshotPeriodicCheckTask()))

	sort.Slice(archiver.checked, func(i, j int) bool { return archiver.checked[i] < archiver.checked[j] })
	assert.Equal(t, []uint{1, 2, 3}, archiver.checked)
	// 2 is idle but its archive failed, 3 is idle but still connected
	assert.Empty(t, archiver.archived)
	assert.Empty(t, sessions.closed)
	assert.True(t, sessions.keep[3])
}

func TestSnapshotCheckHandler_ClosesIdleSessions(t *testing.T) {
	sessions := &fakeSessions{active: []uint{4, 5}, idle: []uint{4, 5}}
	archiver := &fakeArchiver{}
	h := NewSnapshotCheckHandler(sessions, archiver, fakeConnections{}, 0)
	assert.Equal(t, DefaultMaxIdle, h.maxIdle)

	require.NoError(t, h.ProcessTask(context.Background(), tasks.NewSnapshotPeriodicCheckTask()))
	assert.Equal(t, []uint{4, 5}, archiver.archived)
	assert.Equal(t, []uint{4, 5}, sessions.closed)
}

func TestSnapshotCheckHandler_NoOpenBoards(t *testing.T) {
	archiver := &fakeArchiver{}
	h := NewSnapshotCheckHandler(&fakeSessions{}, archiver, fakeConnections{}, time.Minute)
	require.NoError(t, h.ProcessTask(context.Background(), tasks.NewSnapshotPeriodicCheckTask()))
	assert.Empty(t, archiver.checked)
}

func TestWorkerServer_MuxRoutesTaskTypes(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := mocks.NewActionRepository(t)
	archiver := &fakeArchiver{}
	ws := NewWorkerServer(
		asynq.RedisClientOpt{Addr: mr.Addr()},
		2,
		NewActionPersistenceHandler(repo),
		NewSnapshotCheckHandler(&fakeSessions{active: []uint{9}}, archiver, fakeConnections{}, time.Minute),
		logrus.New(),
	)
	mux := ws.Mux()

	require.NoError(t, mux.ProcessTask(context.Background(), tasks.NewSnapshotPeriodicCheckTask()))
	assert.Equal(t, []uint{9}, archiver.checked)

	repo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil).Once()
	task, err := tasks.NewActionPersistenceTask(domain.Action{BoardID: 9, ActionType: domain.ActionUndo})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))

	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}

func TestConstructorsPanicOnNil(t *testing.T) {
	assert.Panics(t, func() { NewActionPersistenceHandler(nil) })
	assert.Panics(t, func() { NewSnapshotCheckHandler(nil, &fakeArchiver{}, fakeConnections{}, 0) })
}
