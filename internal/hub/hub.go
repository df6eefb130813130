package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"pixel-board/internal/dto"
	"pixel-board/internal/service"

	"github.com/sirupsen/logrus"
)

// WebSocket constants shared by the hub and its clients.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Upper bound for one command, including its Redis and queue I/O.
	commandTimeout = 5 * time.Second
)

// ErrHubBusy is reported to a client whose command found the hub queue full.
var ErrHubBusy = errors.New("server busy, command dropped")

// Hub message types.
const (
	msgRegister   = "register"
	msgUnregister = "unregister"
	msgAction     = "action"
)

// BoardEditor is the part of the editor service the hub drives.
type BoardEditor interface {
	State(ctx context.Context, userID, boardID uint) (*service.BoardState, error)
	Execute(ctx context.Context, userID, boardID uint, cmd service.Command) (*service.Result, error)
	EndStroke(boardID uint)
}

// HubMessage is an event passed from a client to the hub loop.
type HubMessage struct {
	Type    string // register, unregister or action
	BoardID uint
	UserID  uint
	Client  *Client
	RawData []byte // action only: the raw WebSocket message
}

// Hub owns the editing connections. Its loop handles one message at a time,
// so the edits of a board are applied in the order they arrive.
type Hub struct {
	messageChan chan HubMessage
	quit        chan struct{}
	stopOnce    sync.Once

	// boardID -> the one connection editing it
	boards   map[uint]*Client
	boardsMu sync.RWMutex

	editor BoardEditor
}

// NewHub panics on a nil editor.
func NewHub(editor BoardEditor) *Hub {
	if editor == nil {
		panic("BoardEditor cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		quit:        make(chan struct{}),
		boards:      make(map[uint]*Client),
		editor:      editor,
	}
}

// Run processes hub messages until Stop is called. It should run in its
// own goroutine.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")
	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case msgRegister:
				h.registerClient(msg.Client)
			case msgUnregister:
				h.unregisterClient(msg.Client)
			case msgAction:
				h.handleClientAction(msg)
			default:
				log.Warnf("Hub: Received unknown message type: %s from user %d on board %d", msg.Type, msg.UserID, msg.BoardID)
			}
		case <-h.quit:
			h.closeAll()
			log.Info("Hub is shutting down...")
			return
		}
	}
}

// Stop ends the Run loop and closes every connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register queues a new client. It returns false when the hub is saturated.
func (h *Hub) Register(c *Client) bool {
	return h.QueueMessage(HubMessage{Type: msgRegister, BoardID: c.BoardID(), UserID: c.UserID(), Client: c})
}

// QueueMessage puts msg on the hub queue without blocking.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"board_id":     msg.BoardID,
			"user_id":      msg.UserID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// ConnectedBoards returns the boards that currently have an editing
// connection.
func (h *Hub) ConnectedBoards() map[uint]bool {
	h.boardsMu.RLock()
	defer h.boardsMu.RUnlock()
	out := make(map[uint]bool, len(h.boards))
	for id := range h.boards {
		out[id] = true
	}
	return out
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"board_id": client.BoardID(),
		"user_id":  client.UserID(),
		"conn_id":  client.ID(),
		"action":   "registerClient",
	})

	h.boardsMu.Lock()
	current, busy := h.boards[client.BoardID()]
	if !busy {
		h.boards[client.BoardID()] = client
	}
	h.boardsMu.Unlock()

	if busy {
		logCtx.WithField("editing_conn_id", current.ID()).Warn("Board already has an editing connection, refusing")
		h.sendError(client, service.ErrSessionBusy)
		client.closeSend()
		return
	}
	logCtx.Info("Client registered to Hub")

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	state, err := h.editor.State(ctx, client.UserID(), client.BoardID())
	if err != nil {
		logCtx.WithError(err).Error("Failed to load initial board state")
		h.sendError(client, err)
		return
	}
	h.send(client, dto.NewState(state))
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"board_id": client.BoardID(),
		"user_id":  client.UserID(),
		"conn_id":  client.ID(),
		"action":   "unregisterClient",
	})

	h.boardsMu.Lock()
	owned := h.boards[client.BoardID()] == client
	if owned {
		delete(h.boards, client.BoardID())
	}
	h.boardsMu.Unlock()

	if owned {
		// a drag cut off by a disconnect must not leak into the next connection
		h.editor.EndStroke(client.BoardID())
		logCtx.Info("Client unregistered from Hub")
	}
	client.closeSend()
}

func (h *Hub) handleClientAction(msg HubMessage) {
	logCtx := logrus.WithFields(logrus.Fields{
		"board_id":  msg.BoardID,
		"user_id":   msg.UserID,
		"operation": "handleClientAction",
	})

	h.boardsMu.RLock()
	owned := msg.Client != nil && h.boards[msg.BoardID] == msg.Client
	h.boardsMu.RUnlock()
	if !owned {
		logCtx.Debug("Dropping action from a connection that is not editing the board")
		return
	}

	var cmd service.Command
	if err := json.Unmarshal(msg.RawData, &cmd); err != nil {
		logCtx.WithError(err).Debug("Malformed client message")
		h.sendError(msg.Client, service.ErrInvalidAction)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	res, err := h.editor.Execute(ctx, msg.UserID, msg.BoardID, cmd)
	if err != nil {
		logCtx.WithField("command", cmd.Type).WithError(err).Debug("Command failed")
		h.sendError(msg.Client, err)
		return
	}

	for _, reply := range h.replies(ctx, msg, cmd, res) {
		h.send(msg.Client, reply)
	}
}

// replies builds the messages answering a command. Changes to the whole
// grid are followed by a full state message.
func (h *Hub) replies(ctx context.Context, msg HubMessage, cmd service.Command, res *service.Result) []dto.ServerMessage {
	var out []dto.ServerMessage
	resync := false

	switch {
	case res.Undone != nil:
		out = append(out, dto.ServerMessage{Type: dto.TypeUndo, OK: res.Undone, Version: res.Version})
		resync = *res.Undone
	case res.Loaded != nil:
		out = append(out, dto.ServerMessage{Type: dto.TypeLoaded, OK: res.Loaded, Version: res.Version})
		resync = *res.Loaded
	case res.Saved:
		ok := true
		out = append(out, dto.ServerMessage{Type: dto.TypeSaved, OK: &ok})
	case cmd.Type == service.CmdContext:
		ctxCopy := res.Context
		out = append(out, dto.ServerMessage{Type: dto.TypeContext, Context: &ctxCopy})
	case res.Change != nil && res.Change.Changed():
		out = append(out, dto.ServerMessage{Type: dto.TypeChange, Change: res.Change, Version: res.Version})
		resync = res.Change.Whole
	}

	if resync {
		state, err := h.editor.State(ctx, msg.UserID, msg.BoardID)
		if err != nil {
			logrus.WithField("board_id", msg.BoardID).WithError(err).Warn("Failed to read board state for resync")
			return out
		}
		out = append(out, dto.NewState(state))
	}
	return out
}

func (h *Hub) sendError(client *Client, err error) {
	message := service.ErrInternalServer.Error()
	for _, known := range []error{
		service.ErrInvalidAction, service.ErrInvalidInput, service.ErrForbidden,
		service.ErrBoardNotFound, service.ErrSessionBusy,
	} {
		if errors.Is(err, known) {
			message = err.Error()
			break
		}
	}
	h.send(client, dto.NewError(message))
}

func (h *Hub) send(client *Client, msg dto.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.WithField("message_type", msg.Type).WithError(err).Error("Failed to marshal server message")
		return
	}
	if !client.trySend(data) {
		logrus.WithFields(logrus.Fields{
			"board_id": client.BoardID(),
			"conn_id":  client.ID(),
		}).Warn("Client send channel full or closed, message dropped")
	}
}

func (h *Hub) closeAll() {
	h.boardsMu.Lock()
	clients := make([]*Client, 0, len(h.boards))
	for id, c := range h.boards {
		clients = append(clients, c)
		delete(h.boards, id)
	}
	h.boardsMu.Unlock()
	for _, c := range clients {
		h.editor.EndStroke(c.BoardID())
		c.closeSend()
	}
}
