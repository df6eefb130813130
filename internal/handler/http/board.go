package http

import (
	"net/http"

	"pixel-board/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BoardHandler serves board CRUD.
type BoardHandler struct {
	boards *service.BoardService
	editor *service.EditorService
}

func NewBoardHandler(boards *service.BoardService, editor *service.EditorService) *BoardHandler {
	if boards == nil || editor == nil {
		panic("BoardService and EditorService cannot be nil for BoardHandler")
	}
	return &BoardHandler{boards: boards, editor: editor}
}

type CreateBoardRequest struct {
	Name     string `json:"name" binding:"max=100"`
	GridSize int    `json:"grid_size" binding:"omitempty,min=1,max=256"`
}

// CreateBoard handles POST /api/boards.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateBoard: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	board, err := h.boards.CreateBoard(c.Request.Context(), userID, req.Name, req.GridSize)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, newBoardResponse(board))
}

// ListBoards handles GET /api/boards.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boards, err := h.boards.ListBoards(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	out := make([]BoardResponse, 0, len(boards))
	for i := range boards {
		out = append(out, newBoardResponse(&boards[i]))
	}
	SuccessResponse(c, http.StatusOK, gin.H{"boards": out})
}

// GetBoard handles GET /api/boards/:boardId and includes the live grid.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	board, err := h.boards.GetBoard(c.Request.Context(), userID, boardID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	state, err := h.editor.State(c.Request.Context(), userID, boardID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"board": newBoardResponse(board), "state": state})
}

// DeleteBoard handles DELETE /api/boards/:boardId.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	if err := h.boards.DeleteBoard(c.Request.Context(), userID, boardID); err != nil {
		HandleServiceError(c, err)
		return
	}
	h.editor.Close(boardID)
	c.Status(http.StatusNoContent)
}
