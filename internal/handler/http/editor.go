package http

import (
	"mime"
	"net/http"
	"strconv"

	"pixel-board/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultSnapshotListLimit = 20

// EditorHandler serves the single-shot editing endpoints, export and
// archives.
type EditorHandler struct {
	editor    *service.EditorService
	snapshots *service.SnapshotService
}

func NewEditorHandler(editor *service.EditorService, snapshots *service.SnapshotService) *EditorHandler {
	if editor == nil || snapshots == nil {
		panic("EditorService and SnapshotService cannot be nil for EditorHandler")
	}
	return &EditorHandler{editor: editor, snapshots: snapshots}
}

// CellRequest addresses a cell by index or by row and col.
type CellRequest struct {
	Index *int   `json:"index"`
	Row   *int   `json:"row"`
	Col   *int   `json:"col"`
	Color string `json:"color"`
}

type ContextRequest struct {
	Color    string `json:"color"`
	FillMode *bool  `json:"fill_mode"`
	Erase    *bool  `json:"erase"`
}

// Paint handles POST /api/boards/:boardId/paint.
func (h *EditorHandler) Paint(c *gin.Context) { h.cellCommand(c, service.CmdPaint) }

// Erase handles POST /api/boards/:boardId/erase.
func (h *EditorHandler) Erase(c *gin.Context) { h.cellCommand(c, service.CmdErase) }

// Fill handles POST /api/boards/:boardId/fill.
func (h *EditorHandler) Fill(c *gin.Context) { h.cellCommand(c, service.CmdFill) }

func (h *EditorHandler) cellCommand(c *gin.Context, cmdType service.CommandType) {
	var req CellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.execute(c, service.Command{Type: cmdType, Index: req.Index, Row: req.Row, Col: req.Col, Color: req.Color})
}

// SetContext handles PUT /api/boards/:boardId/context.
func (h *EditorHandler) SetContext(c *gin.Context) {
	var req ContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	h.execute(c, service.Command{Type: service.CmdContext, Color: req.Color, FillMode: req.FillMode, Erase: req.Erase})
}

// Undo handles POST /api/boards/:boardId/undo.
func (h *EditorHandler) Undo(c *gin.Context) { h.execute(c, service.Command{Type: service.CmdUndo}) }

// Clear handles POST /api/boards/:boardId/clear.
func (h *EditorHandler) Clear(c *gin.Context) { h.execute(c, service.Command{Type: service.CmdClear}) }

// Save handles POST /api/boards/:boardId/save.
func (h *EditorHandler) Save(c *gin.Context) { h.execute(c, service.Command{Type: service.CmdSave}) }

// Load handles POST /api/boards/:boardId/load.
func (h *EditorHandler) Load(c *gin.Context) { h.execute(c, service.Command{Type: service.CmdLoad}) }

func (h *EditorHandler) execute(c *gin.Context, cmd service.Command) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	res, err := h.editor.Execute(c.Request.Context(), userID, boardID, cmd)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, res)
}

// Export handles GET /api/boards/:boardId/export.
func (h *EditorHandler) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	opts := service.ExportOptions{
		Background: c.Query("background"),
		Format:     c.Query("format"),
		FileName:   c.Query("name"),
	}
	if raw := c.Query("cell_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid cell_size")
			return
		}
		opts.CellPixelSize = size
	}

	exportID := uuid.NewString()
	out, err := h.editor.Export(c.Request.Context(), userID, boardID, opts)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"board_id":  boardID,
		"user_id":   userID,
		"export_id": exportID,
		"file_name": out.FileName,
		"bytes":     len(out.Data),
	}).Info("Handler.Export: Board exported")

	c.Header("X-Export-ID", exportID)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// ListSnapshots handles GET /api/boards/:boardId/snapshots.
func (h *EditorHandler) ListSnapshots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	limit := defaultSnapshotListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	if _, err := h.editor.Authorize(c.Request.Context(), userID, boardID); err != nil {
		HandleServiceError(c, err)
		return
	}
	snaps, err := h.snapshots.ListSnapshots(c.Request.Context(), boardID, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	out := make([]SnapshotResponse, 0, len(snaps))
	for i := range snaps {
		out = append(out, newSnapshotResponse(&snaps[i]))
	}
	SuccessResponse(c, http.StatusOK, gin.H{"snapshots": out})
}

// CreateSnapshot handles POST /api/boards/:boardId/snapshots.
func (h *EditorHandler) CreateSnapshot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	if _, err := h.editor.Authorize(c.Request.Context(), userID, boardID); err != nil {
		HandleServiceError(c, err)
		return
	}
	archived, err := h.snapshots.ArchiveNow(c.Request.Context(), boardID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, newSnapshotResponse(archived))
}

// RestoreSnapshot handles POST /api/boards/:boardId/snapshots/:snapshotId/restore.
func (h *EditorHandler) RestoreSnapshot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := uintParam(c, "boardId")
	if !ok {
		return
	}
	snapshotID, ok := uintParam(c, "snapshotId")
	if !ok {
		return
	}
	if _, err := h.editor.Authorize(c.Request.Context(), userID, boardID); err != nil {
		HandleServiceError(c, err)
		return
	}
	_, grid, err := h.snapshots.GetSnapshot(c.Request.Context(), boardID, snapshotID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	res, err := h.editor.Restore(c.Request.Context(), userID, boardID, grid)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, res)
}
