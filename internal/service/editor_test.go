package service_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/editor"
	"pixel-board/internal/render"
	"pixel-board/internal/repository"
	"pixel-board/internal/repository/mocks"
	"pixel-board/internal/service"
	"pixel-board/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

type editorFixture struct {
	svc       *service.EditorService
	boardRepo *mocks.BoardRepository
	stateRepo *mocks.StateRepository
	enqueuer  *mockEnqueuer
	board     *domain.Board
}

func newEditorFixture(t *testing.T, gridSize int) *editorFixture {
	t.Helper()
	f := &editorFixture{
		boardRepo: new(mocks.BoardRepository),
		stateRepo: new(mocks.StateRepository),
		enqueuer:  new(mockEnqueuer),
		board:     &domain.Board{ID: 7, OwnerID: 1, Name: "sprite", GridSize: gridSize},
	}
	f.boardRepo.On("FindByID", mock.Anything, uint(7)).Return(f.board, nil)
	f.svc = service.NewEditorService(f.boardRepo, f.stateRepo, f.enqueuer, service.DefaultEditorConfig())
	return f
}

func (f *editorFixture) expectEmptyRecord() {
	f.expectNoWorkingCopy()
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound).Once()
}

func (f *editorFixture) expectNoWorkingCopy() {
	f.stateRepo.On("LoadWorkingGrid", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound).Once()
}

func (f *editorFixture) expectRecorded(version uint, actionType string) {
	f.stateRepo.On("IncrementVersion", mock.Anything, uint(7)).Return(version, nil).Once()
	f.enqueuer.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeActionPersistence {
			return false
		}
		p, err := tasks.ParseActionPersistencePayload(task)
		return err == nil && p.Action.ActionType == actionType && p.Action.Version == version && p.Action.BoardID == 7
	})).Return(&asynq.TaskInfo{}, nil).Once()
}

func intp(i int) *int    { return &i }
func boolp(b bool) *bool { return &b }

func TestEditorService_PaintRecordsAction(t *testing.T) {
	f := newEditorFixture(t, 4)
	f.expectEmptyRecord()
	f.expectRecorded(1, domain.ActionPaint)
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdPaint, Index: intp(5), Color: "#ff0000"})
	require.NoError(t, err)
	require.NotNil(t, res.Change)
	assert.Equal(t, []int{5}, res.Change.Indices)
	assert.Equal(t, uint(1), res.Version)
	assert.Equal(t, domain.RGB(0, 0, 0), res.Context.Color, "color override is one-shot")

	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(1), nil).Once()
	state, err := f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", state.Cells[5])
	assert.Equal(t, "", state.Cells[0])
	assert.Equal(t, 1, state.HistoryLen)

	f.stateRepo.AssertExpectations(t)
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_RowColAddressing(t *testing.T) {
	f := newEditorFixture(t, 4)
	f.expectEmptyRecord()
	f.expectRecorded(1, domain.ActionPaint)

	res, err := f.svc.Execute(context.Background(), 1, 7, service.Command{Type: service.CmdPaint, Row: intp(2), Col: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Change.Index)

	_, err = f.svc.Execute(context.Background(), 1, 7, service.Command{Type: service.CmdPaint, Row: intp(4), Col: intp(0)})
	assert.True(t, errors.Is(err, service.ErrInvalidAction))
	_, err = f.svc.Execute(context.Background(), 1, 7, service.Command{Type: service.CmdPaint})
	assert.True(t, errors.Is(err, service.ErrInvalidAction))
}

func TestEditorService_Authorization(t *testing.T) {
	boardRepo := new(mocks.BoardRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewEditorService(boardRepo, stateRepo, nil, service.DefaultEditorConfig())
	boardRepo.On("FindByID", mock.Anything, uint(3)).Return(&domain.Board{ID: 3, OwnerID: 2, GridSize: 4}, nil)
	boardRepo.On("FindByID", mock.Anything, uint(4)).Return(nil, repository.ErrBoardNotFound)

	_, err := svc.Execute(context.Background(), 1, 3, service.Command{Type: service.CmdUndo})
	assert.True(t, errors.Is(err, service.ErrForbidden))
	_, err = svc.State(context.Background(), 1, 4)
	assert.True(t, errors.Is(err, service.ErrBoardNotFound))
	stateRepo.AssertNotCalled(t, "LoadWorkingGrid", mock.Anything, mock.Anything)
	stateRepo.AssertNotCalled(t, "LoadGrid", mock.Anything, mock.Anything)
}

func TestEditorService_HydratesFromPersistedGrid(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectNoWorkingCopy()
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).
		Return([]byte(`["#00ff00", "", "rgb(0, 0, 255)", null]`), nil).Once()
	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(12), nil)

	state, err := f.svc.State(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"#00ff00", "", "#0000ff", ""}, state.Cells)
	assert.Equal(t, uint(12), state.Version)
	assert.Equal(t, 0, state.HistoryLen, "hydration is not an undo step")

	_, err = f.svc.State(context.Background(), 1, 7)
	require.NoError(t, err)
	f.stateRepo.AssertNumberOfCalls(t, "LoadGrid", 1)
}

func TestEditorService_CorruptRecordStartsEmpty(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectNoWorkingCopy()
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return([]byte(`["#00ff00"]`), nil).Once()
	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(0), nil)

	state, err := f.svc.State(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", ""}, state.Cells)
}

func TestEditorService_StrokeIsOneAction(t *testing.T) {
	f := newEditorFixture(t, 3)
	f.expectEmptyRecord()
	f.expectRecorded(1, domain.ActionPaint)
	f.expectRecorded(2, domain.ActionPaint)
	f.expectRecorded(3, domain.ActionPaint)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdBegin, Button: domain.ButtonPrimary, Index: intp(0)})
	require.NoError(t, err)
	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdMove, Index: intp(1)})
	require.NoError(t, err)
	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdMove, Index: intp(2)})
	require.NoError(t, err)
	res, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdEnd})
	require.NoError(t, err)
	assert.Nil(t, res.Change)

	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdMove, Index: intp(3)})
	assert.True(t, errors.Is(err, service.ErrInvalidAction), "move after end has no stroke")

	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(3), nil)
	state, err := f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, state.HistoryLen)
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_UndoAndNoOps(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdUndo})
	require.NoError(t, err)
	require.NotNil(t, res.Undone)
	assert.False(t, *res.Undone)

	// filling an empty grid with empty is a no-op and not recorded
	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdContext, Color: "transparent"})
	require.NoError(t, err)
	res, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdFill, Index: intp(0)})
	require.NoError(t, err)
	assert.False(t, res.Change.Changed())

	f.expectRecorded(1, domain.ActionPaint)
	f.expectRecorded(2, domain.ActionUndo)
	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdPaint, Index: intp(1), Color: "red"})
	require.NoError(t, err)
	res, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdUndo})
	require.NoError(t, err)
	assert.True(t, *res.Undone)
	assert.Equal(t, uint(2), res.Version)

	f.stateRepo.AssertExpectations(t)
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_ContextCommand(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()

	res, err := f.svc.Execute(context.Background(), 1, 7, service.Command{
		Type: service.CmdContext, Color: "#0000FF", FillMode: boolp(true), Erase: boolp(false),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RGB(0, 0, 255), res.Context.Color)
	assert.True(t, res.Context.FillMode)

	_, err = f.svc.Execute(context.Background(), 1, 7, service.Command{Type: service.CmdContext, Color: "blurple"})
	assert.True(t, errors.Is(err, service.ErrInvalidAction))
	f.stateRepo.AssertNotCalled(t, "IncrementVersion", mock.Anything, mock.Anything)
}

func TestEditorService_SaveClearLoad(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()
	ctx := context.Background()

	f.expectRecorded(1, domain.ActionPaint)
	_, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdPaint, Index: intp(0), Color: "#ff0000"})
	require.NoError(t, err)

	var saved []byte
	f.stateRepo.On("SaveGrid", mock.Anything, uint(7), mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]byte) }).
		Return(nil).Once()
	res, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdSave})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.JSONEq(t, `["#ff0000","","",""]`, string(saved))

	f.stateRepo.On("DeleteGrid", mock.Anything, uint(7)).Return(nil).Once()
	f.expectRecorded(2, domain.ActionClear)
	res, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdClear})
	require.NoError(t, err)
	assert.Equal(t, editor.ChangeClear, res.Change.Kind)

	// the record is gone after clear, so load finds nothing
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound).Once()
	res, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdLoad})
	require.NoError(t, err)
	require.NotNil(t, res.Loaded)
	assert.False(t, *res.Loaded)

	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return(saved, nil).Once()
	f.expectRecorded(3, domain.ActionLoad)
	res, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdLoad})
	require.NoError(t, err)
	assert.True(t, *res.Loaded)

	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(3), nil)
	state, err := f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", state.Cells[0])

	f.stateRepo.AssertExpectations(t)
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_FailedClearLeavesGrid(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()
	ctx := context.Background()

	f.expectRecorded(1, domain.ActionPaint)
	_, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdPaint, Index: intp(0), Color: "#ff0000"})
	require.NoError(t, err)

	f.stateRepo.On("DeleteGrid", mock.Anything, uint(7)).Return(errors.New("redis down")).Once()
	_, err = f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdClear})
	assert.True(t, errors.Is(err, service.ErrInternalServer))

	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(1), nil)
	state, err := f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", state.Cells[0])
	assert.Equal(t, 1, state.HistoryLen, "a failed clear must not push an undo step")
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_ResumesFromWorkingCopy(t *testing.T) {
	f := newEditorFixture(t, 2)
	ctx := context.Background()
	f.stateRepo.On("LoadWorkingGrid", mock.Anything, uint(7)).Return([]byte(`["#0000ff","","",""]`), nil).Once()
	f.stateRepo.On("GetCurrentVersion", mock.Anything, uint(7)).Return(uint(4), nil)

	state, err := f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "#0000ff", state.Cells[0])
	f.stateRepo.AssertNotCalled(t, "LoadGrid", mock.Anything, mock.Anything)

	// load still returns the last explicit save, not the working copy
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return([]byte(`["","#00ff00","",""]`), nil).Once()
	f.expectRecorded(5, domain.ActionLoad)
	res, err := f.svc.Execute(ctx, 1, 7, service.Command{Type: service.CmdLoad})
	require.NoError(t, err)
	assert.True(t, *res.Loaded)

	state, err = f.svc.State(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "#00ff00", "", ""}, state.Cells)
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_UnknownCommand(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()
	_, err := f.svc.Execute(context.Background(), 1, 7, service.Command{Type: "teleport"})
	assert.True(t, errors.Is(err, service.ErrInvalidAction))
}

func TestEditorService_Restore(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.expectEmptyRecord()
	f.expectRecorded(1, domain.ActionRestore)
	blue := domain.RGB(0, 0, 255)

	res, err := f.svc.Restore(context.Background(), 1, 7, domain.NewSnapshot(2, []domain.Cell{blue, blue, blue, blue}))
	require.NoError(t, err)
	assert.Equal(t, editor.ChangeLoad, res.Change.Kind)

	_, err = f.svc.Restore(context.Background(), 1, 7, domain.EmptySnapshot(3))
	assert.True(t, errors.Is(err, service.ErrInvalidAction))
	f.enqueuer.AssertExpectations(t)
}

func TestEditorService_Export(t *testing.T) {
	f := newEditorFixture(t, 3)
	f.expectEmptyRecord()
	ctx := context.Background()

	out, err := f.svc.Export(ctx, 1, 7, service.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "dot-art.png", out.FileName)
	assert.Equal(t, "image/png", out.ContentType)
	img, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())

	out, err = f.svc.Export(ctx, 1, 7, service.ExportOptions{CellPixelSize: 2, Background: "opaque", Format: "bmp", FileName: "hero"})
	require.NoError(t, err)
	assert.Equal(t, "hero.bmp", out.FileName)

	_, err = f.svc.Export(ctx, 1, 7, service.ExportOptions{Format: "gif"})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	_, err = f.svc.Export(ctx, 1, 7, service.ExportOptions{CellPixelSize: -1})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	_, err = f.svc.Export(ctx, 1, 7, service.ExportOptions{Background: "plaid"})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
}

func TestEditorService_SessionsLifecycle(t *testing.T) {
	f := newEditorFixture(t, 2)
	f.stateRepo.On("LoadWorkingGrid", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound)
	f.stateRepo.On("LoadGrid", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound)
	ctx := context.Background()

	assert.Empty(t, f.svc.ActiveBoardIDs())
	snap, err := f.svc.CurrentGrid(ctx, 7)
	require.NoError(t, err)
	assert.True(t, snap.Equal(domain.EmptySnapshot(2)))
	assert.Equal(t, []uint{7}, f.svc.ActiveBoardIDs())

	assert.Empty(t, f.svc.IdleBoardIDs(time.Hour, nil))
	assert.Empty(t, f.svc.IdleBoardIDs(-time.Second, map[uint]bool{7: true}))
	assert.Equal(t, []uint{7}, f.svc.IdleBoardIDs(-time.Second, nil))
	f.svc.Close(7)
	assert.Empty(t, f.svc.ActiveBoardIDs())

	_, err = f.svc.CurrentGrid(ctx, 7)
	require.NoError(t, err)
	f.svc.EndStroke(7)
	f.svc.EndStroke(99)
	assert.Equal(t, []uint{7}, f.svc.ActiveBoardIDs())
}

func TestDefaultEditorConfig(t *testing.T) {
	cfg := service.DefaultEditorConfig()
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, render.DefaultCellPixelSize, cfg.Render.CellPixelSize)
	assert.Equal(t, render.FormatPNG, cfg.ExportFormat)
}
