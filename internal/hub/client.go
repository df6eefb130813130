package hub

import (
	"sync"
	"time"

	"pixel-board/internal/dto"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one WebSocket connection editing a board.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	boardID uint
	userID  uint

	send   chan []byte
	sendMu sync.Mutex
	closed bool
}

// NewClient creates a client; id identifies the connection in logs.
func NewClient(hub *Hub, conn *websocket.Conn, id string, boardID, userID uint) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		id:      id,
		boardID: boardID,
		userID:  userID,
		send:    make(chan []byte, 256),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump forwards messages from the connection to the hub loop.
func (c *Client) ReadPump() {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.userID, "board_id": c.boardID, "conn_id": c.id})
	defer func() {
		unregisterMsg := HubMessage{Type: msgUnregister, BoardID: c.boardID, UserID: c.userID, Client: c}
		select {
		case c.hub.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logCtx.Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		logCtx.Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Received non-text message type: %d", messageType)
			continue
		}

		c.forward(message)
	}
}

// forward queues one command for the hub loop. A full queue drops the
// command and tells the client so it can retry.
func (c *Client) forward(message []byte) {
	if c.hub.QueueMessage(HubMessage{
		Type:    msgAction,
		BoardID: c.boardID,
		UserID:  c.userID,
		Client:  c,
		RawData: message,
	}) {
		return
	}
	logrus.WithFields(logrus.Fields{"user_id": c.userID, "board_id": c.boardID, "conn_id": c.id}).
		Warn("Hub message channel full, dropping client message")
	c.hub.send(c, dto.NewError(ErrHubBusy.Error()))
}

// WritePump writes queued messages to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": c.userID, "board_id": c.boardID, "conn_id": c.id})
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				logCtx.Info("Hub closed send channel")
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}

func (c *Client) ID() string { return c.id }
func (c *Client) BoardID() uint { return c.boardID }
func (c *Client) UserID() uint { return c.userID }

// trySend queues data without blocking. It returns false when the buffer
// is full or the client was closed.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel once; WritePump then closes the
// connection.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
