package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/dto"
	"pixel-board/internal/editor"
	"pixel-board/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	mu       sync.Mutex
	commands []service.Command
	ended    []uint
	results  map[service.CommandType]*service.Result
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{results: make(map[service.CommandType]*service.Result)}
}

func (f *fakeEditor) State(ctx context.Context, userID, boardID uint) (*service.BoardState, error) {
	if boardID == 404 {
		return nil, service.ErrBoardNotFound
	}
	return &service.BoardState{BoardID: boardID, GridSize: 2, Cells: []string{"", "", "", ""}, Version: 3}, nil
}

func (f *fakeEditor) Execute(ctx context.Context, userID, boardID uint, cmd service.Command) (*service.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if res, ok := f.results[cmd.Type]; ok {
		return res, nil
	}
	return nil, service.ErrInvalidAction
}

func (f *fakeEditor) EndStroke(boardID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, boardID)
}

func (f *fakeEditor) endedBoards() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint(nil), f.ended...)
}

func startHub(t *testing.T, ed BoardEditor) *Hub {
	t.Helper()
	h := NewHub(ed)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func recv(t *testing.T, c *Client) dto.ServerMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg dto.ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a server message")
	}
	return dto.ServerMessage{}
}

func requireClosed(t *testing.T, c *Client) {
	t.Helper()
	select {
	case _, ok := <-c.send:
		require.False(t, ok, "expected the send channel to be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the send channel to close")
	}
}

func action(c *Client, raw string) HubMessage {
	return HubMessage{Type: msgAction, BoardID: c.BoardID(), UserID: c.UserID(), Client: c, RawData: []byte(raw)}
}

func TestHub_RegisterSendsState(t *testing.T) {
	h := startHub(t, newFakeEditor())
	c := NewClient(h, nil, "conn-1", 7, 1)
	require.True(t, h.Register(c))

	msg := recv(t, c)
	assert.Equal(t, dto.TypeState, msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, uint(7), msg.State.BoardID)
	assert.Equal(t, uint(3), msg.Version)
	assert.Equal(t, map[uint]bool{7: true}, h.ConnectedBoards())
}

func TestHub_RegisterUnknownBoardSendsError(t *testing.T) {
	h := startHub(t, newFakeEditor())
	c := NewClient(h, nil, "conn-1", 404, 1)
	require.True(t, h.Register(c))

	msg := recv(t, c)
	assert.Equal(t, dto.TypeError, msg.Type)
	assert.Equal(t, service.ErrBoardNotFound.Error(), msg.Message)
}

func TestHub_RefusesSecondConnection(t *testing.T) {
	ed := newFakeEditor()
	ed.results[service.CmdPaint] = &service.Result{Change: &editor.Change{Kind: editor.ChangePaint, Indices: []int{0}}}
	h := startHub(t, ed)

	first := NewClient(h, nil, "conn-1", 7, 1)
	second := NewClient(h, nil, "conn-2", 7, 1)
	require.True(t, h.Register(first))
	recv(t, first)
	require.True(t, h.Register(second))

	msg := recv(t, second)
	assert.Equal(t, dto.TypeError, msg.Type)
	assert.Equal(t, service.ErrSessionBusy.Error(), msg.Message)
	requireClosed(t, second)

	// the refused connection cannot edit and its disconnect leaves the board alone
	require.True(t, h.QueueMessage(action(second, `{"type":"paint","index":0}`)))
	require.True(t, h.QueueMessage(HubMessage{Type: msgUnregister, Client: second}))
	require.True(t, h.QueueMessage(action(first, `{"type":"paint","index":0}`)))
	assert.Equal(t, dto.TypeChange, recv(t, first).Type)

	ed.mu.Lock()
	assert.Len(t, ed.commands, 1)
	ed.mu.Unlock()
	assert.Empty(t, ed.endedBoards())
	assert.Equal(t, map[uint]bool{7: true}, h.ConnectedBoards())
}

func TestHub_OtherBoardsAreIndependent(t *testing.T) {
	h := startHub(t, newFakeEditor())
	a := NewClient(h, nil, "conn-a", 1, 1)
	b := NewClient(h, nil, "conn-b", 2, 1)
	require.True(t, h.Register(a))
	require.True(t, h.Register(b))
	assert.Equal(t, dto.TypeState, recv(t, a).Type)
	assert.Equal(t, dto.TypeState, recv(t, b).Type)
}

func TestHub_CommandReplies(t *testing.T) {
	ed := newFakeEditor()
	undone := true
	loaded := false
	ctxAfter := domain.DefaultDrawingContext(true)
	ed.results[service.CmdBegin] = &service.Result{Change: &editor.Change{Kind: editor.ChangePaint, Index: 1, Indices: []int{1}}, Version: 4}
	ed.results[service.CmdMove] = &service.Result{Change: &editor.Change{Kind: editor.ChangePaint, Index: 1}}
	ed.results[service.CmdUndo] = &service.Result{Undone: &undone, Version: 5}
	ed.results[service.CmdContext] = &service.Result{Context: ctxAfter}
	ed.results[service.CmdSave] = &service.Result{Saved: true}
	ed.results[service.CmdLoad] = &service.Result{Loaded: &loaded}
	ed.results[service.CmdClear] = &service.Result{Change: &editor.Change{Kind: editor.ChangeClear, Whole: true}, Version: 6}
	ed.results[service.CmdEnd] = &service.Result{}
	h := startHub(t, ed)

	c := NewClient(h, nil, "conn-1", 7, 1)
	require.True(t, h.Register(c))
	recv(t, c)

	require.True(t, h.QueueMessage(action(c, `{"type":"begin","button":"primary","index":1}`)))
	msg := recv(t, c)
	assert.Equal(t, dto.TypeChange, msg.Type)
	assert.Equal(t, []int{1}, msg.Change.Indices)
	assert.Equal(t, uint(4), msg.Version)

	// a move that changes nothing and the end of the stroke produce no reply
	require.True(t, h.QueueMessage(action(c, `{"type":"move","index":1}`)))
	require.True(t, h.QueueMessage(action(c, `{"type":"end"}`)))

	require.True(t, h.QueueMessage(action(c, `{"type":"undo"}`)))
	msg = recv(t, c)
	assert.Equal(t, dto.TypeUndo, msg.Type)
	require.NotNil(t, msg.OK)
	assert.True(t, *msg.OK)
	assert.Equal(t, dto.TypeState, recv(t, c).Type, "a successful undo is followed by the full grid")

	require.True(t, h.QueueMessage(action(c, `{"type":"context","fill_mode":true}`)))
	msg = recv(t, c)
	assert.Equal(t, dto.TypeContext, msg.Type)
	assert.True(t, msg.Context.FillMode)

	require.True(t, h.QueueMessage(action(c, `{"type":"save"}`)))
	assert.Equal(t, dto.TypeSaved, recv(t, c).Type)

	require.True(t, h.QueueMessage(action(c, `{"type":"load"}`)))
	msg = recv(t, c)
	assert.Equal(t, dto.TypeLoaded, msg.Type)
	assert.False(t, *msg.OK)

	require.True(t, h.QueueMessage(action(c, `{"type":"clear"}`)))
	assert.Equal(t, dto.TypeChange, recv(t, c).Type)
	assert.Equal(t, dto.TypeState, recv(t, c).Type)

	require.True(t, h.QueueMessage(action(c, `not json`)))
	msg = recv(t, c)
	assert.Equal(t, dto.TypeError, msg.Type)
	assert.Equal(t, service.ErrInvalidAction.Error(), msg.Message)

	require.True(t, h.QueueMessage(action(c, `{"type":"teleport"}`)))
	assert.Equal(t, dto.TypeError, recv(t, c).Type)

	ed.mu.Lock()
	defer ed.mu.Unlock()
	require.Len(t, ed.commands, 9)
	assert.Equal(t, domain.ButtonPrimary, ed.commands[0].Button)
	assert.Equal(t, 1, *ed.commands[0].Index)
}

func TestHub_UnregisterEndsStrokeAndFreesBoard(t *testing.T) {
	ed := newFakeEditor()
	h := startHub(t, ed)

	c := NewClient(h, nil, "conn-1", 7, 1)
	require.True(t, h.Register(c))
	recv(t, c)
	require.True(t, h.QueueMessage(HubMessage{Type: msgUnregister, BoardID: 7, UserID: 1, Client: c}))
	requireClosed(t, c)
	assert.Equal(t, []uint{7}, ed.endedBoards())
	assert.Empty(t, h.ConnectedBoards())

	next := NewClient(h, nil, "conn-2", 7, 1)
	require.True(t, h.Register(next))
	assert.Equal(t, dto.TypeState, recv(t, next).Type)
}

func TestHub_StopClosesClients(t *testing.T) {
	ed := newFakeEditor()
	h := NewHub(ed)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	c := NewClient(h, nil, "conn-1", 7, 1)
	require.True(t, h.Register(c))
	recv(t, c)
	h.Stop()
	h.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	requireClosed(t, c)
	assert.False(t, c.trySend([]byte("late")))
}

func TestClient_FullQueueReportsDroppedCommand(t *testing.T) {
	h := NewHub(newFakeEditor()) // loop not running, so the queue only fills
	c := NewClient(h, nil, "conn-1", 7, 1)
	for i := 0; i < cap(h.messageChan); i++ {
		c.forward([]byte(`{"type":"paint","index":0}`))
	}
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message while the queue had room: %s", data)
	default:
	}

	c.forward([]byte(`{"type":"paint","index":1}`))
	msg := recv(t, c)
	assert.Equal(t, dto.TypeError, msg.Type)
	assert.Equal(t, ErrHubBusy.Error(), msg.Message)
	assert.Len(t, h.messageChan, cap(h.messageChan))
}

func TestNewHub_PanicsOnNilEditor(t *testing.T) {
	assert.Panics(t, func() { NewHub(nil) })
}
