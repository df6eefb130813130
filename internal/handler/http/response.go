package http

import (
	"net/http"
	"strconv"
	"time"

	"pixel-board/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// BoardResponse is the JSON form of a board.
type BoardResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	GridSize   int       `json:"grid_size"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

func newBoardResponse(b *domain.Board) BoardResponse {
	return BoardResponse{ID: b.ID, Name: b.Name, GridSize: b.GridSize, CreatedAt: b.CreatedAt, LastActive: b.LastActive}
}

// SnapshotResponse describes an archive without its grid data.
type SnapshotResponse struct {
	ID        uint      `json:"id"`
	BoardID   uint      `json:"board_id"`
	Version   uint      `json:"version"`
	GridSize  int       `json:"grid_size"`
	CreatedAt time.Time `json:"created_at"`
}

func newSnapshotResponse(s *domain.BoardSnapshot) SnapshotResponse {
	return SnapshotResponse{ID: s.ID, BoardID: s.BoardID, Version: s.Version, GridSize: s.GridSize, CreatedAt: s.CreatedAt}
}

// currentUserID reads the id set by the auth middleware, writing the error
// response itself when it is missing.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}

// uintParam parses a positive id from the route.
func uintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}
