package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"pixel-board/internal/domain"
	"pixel-board/internal/hub"
	"pixel-board/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// BoardAuthorizer checks board ownership before a connection is upgraded.
type BoardAuthorizer interface {
	Authorize(ctx context.Context, userID, boardID uint) (*domain.Board, error)
}

// WebSocketHandler upgrades editing connections and hands them to the hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	boards   BoardAuthorizer
}

// NewWebSocketHandler panics on nil dependencies. An empty allowedOrigin
// accepts every origin.
func NewWebSocketHandler(h *hub.Hub, boards BoardAuthorizer, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if boards == nil {
		panic("BoardAuthorizer cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h, boards: boards}
}

// HandleConnection serves GET /ws/board/:boardId.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithFields(logrus.Fields{})

	userIDAny, exists := c.Get("user_id")
	if !exists {
		logCtx.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logCtx.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx = logCtx.WithField("user_id", userID)

	boardIDStr := c.Param("boardId")
	boardID64, err := strconv.ParseUint(boardIDStr, 10, 32)
	if err != nil || boardID64 == 0 {
		logCtx.Warnf("WS Handler: Invalid board ID format: %s", boardIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}
	boardID := uint(boardID64)
	logCtx = logCtx.WithField("board_id", boardID)

	if _, err := h.boards.Authorize(c.Request.Context(), userID, boardID); err != nil {
		switch {
		case errors.Is(err, service.ErrBoardNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Board belongs to another user"})
		default:
			logCtx.WithError(err).Error("WS Handler: Error checking board access")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate board"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	connID := uuid.NewString()
	logCtx = logCtx.WithField("conn_id", connID)
	client := hub.NewClient(h.hub, conn, connID, boardID, userID)
	if !h.hub.Register(client) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		conn.Close()
		return
	}
	client.Run()
	logCtx.Info("WS Handler: Client registered, pumps started")
}
