package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pixel-board/internal/domain"
	"pixel-board/internal/editor"
	"pixel-board/internal/render"
	"pixel-board/internal/repository"
	"pixel-board/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskEnqueuer is the part of *asynq.Client the editor uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EditorConfig holds the editor defaults applied to every session.
type EditorConfig struct {
	HistoryCapacity int
	FillMode        bool
	Render          render.Options
	ExportFormat    render.Format
	ExportFileName  string
}

// DefaultEditorConfig matches the stock editor.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		HistoryCapacity: domain.DefaultHistoryCapacity,
		Render:          render.DefaultOptions(),
		ExportFormat:    render.FormatPNG,
		ExportFileName:  render.DefaultFileName,
	}
}

// CommandType names an editing command.
type CommandType string

const (
	CmdBegin   CommandType = "begin"
	CmdMove    CommandType = "move"
	CmdEnd     CommandType = "end"
	CmdPaint   CommandType = "paint"
	CmdErase   CommandType = "erase"
	CmdFill    CommandType = "fill"
	CmdUndo    CommandType = "undo"
	CmdClear   CommandType = "clear"
	CmdContext CommandType = "context"
	CmdSave    CommandType = "save"
	CmdLoad    CommandType = "load"
)

// Command is one editing request, shared by the HTTP and WebSocket
// transports. A cell is addressed either by Index or by Row and Col.
type Command struct {
	Type     CommandType   `json:"type"`
	Button   domain.Button `json:"button,omitempty"`
	Index    *int          `json:"index,omitempty"`
	Row      *int          `json:"row,omitempty"`
	Col      *int          `json:"col,omitempty"`
	Color    string        `json:"color,omitempty"` // context color, or one-shot override for paint/fill
	FillMode *bool         `json:"fill_mode,omitempty"`
	Erase    *bool         `json:"erase,omitempty"`
}

// Result is what a command produced.
type Result struct {
	Change  *editor.Change        `json:"change,omitempty"`
	Undone  *bool                 `json:"undone,omitempty"`
	Saved   bool                  `json:"saved,omitempty"`
	Loaded  *bool                 `json:"loaded,omitempty"`
	Context domain.DrawingContext `json:"context"`
	Version uint                  `json:"version"`
}

// BoardState is the full view of an open board.
type BoardState struct {
	BoardID    uint                  `json:"board_id"`
	GridSize   int                   `json:"grid_size"`
	Cells      []string              `json:"cells"`
	Context    domain.DrawingContext `json:"context"`
	Version    uint                  `json:"version"`
	HistoryLen int                   `json:"history_len"`
}

// Export is a rendered board.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportOptions overrides the configured export defaults. Zero values keep
// the default.
type ExportOptions struct {
	CellPixelSize int
	Background    string
	Format        string
	FileName      string
}

type boardSession struct {
	mu       sync.Mutex
	board    domain.Board
	editor   *editor.Session
	lastUsed time.Time
}

// EditorService owns one editing session per open board. Calls on the same
// board are serialized by the session lock.
type EditorService struct {
	boardRepo repository.BoardRepository
	stateRepo repository.StateRepository
	enqueuer  TaskEnqueuer
	cfg       EditorConfig

	mu       sync.Mutex
	sessions map[uint]*boardSession
	now      func() time.Time
}

// NewEditorService panics on nil repositories. enqueuer may be nil, in
// which case edits are not written to the action log.
func NewEditorService(boardRepo repository.BoardRepository, stateRepo repository.StateRepository, enqueuer TaskEnqueuer, cfg EditorConfig) *EditorService {
	if boardRepo == nil || stateRepo == nil {
		panic("BoardRepository and StateRepository cannot be nil for EditorService")
	}
	if cfg.Render.CellPixelSize <= 0 {
		cfg.Render.CellPixelSize = render.DefaultCellPixelSize
	}
	if cfg.Render.Background == "" {
		cfg.Render.Background = render.BackgroundTransparent
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = render.FormatPNG
	}
	return &EditorService{
		boardRepo: boardRepo,
		stateRepo: stateRepo,
		enqueuer:  enqueuer,
		cfg:       cfg,
		sessions:  make(map[uint]*boardSession),
		now:       time.Now,
	}
}

// Authorize checks that userID owns boardID.
func (s *EditorService) Authorize(ctx context.Context, userID, boardID uint) (*domain.Board, error) {
	return authorizeBoard(ctx, s.boardRepo, userID, boardID)
}

// State returns the current grid and drawing context of a board, opening
// its session if needed.
func (s *EditorService) State(ctx context.Context, userID, boardID uint) (*BoardState, error) {
	var state *BoardState
	err := s.withSession(ctx, userID, boardID, func(bs *boardSession) error {
		cells := encodeCells(bs.editor.Snapshot())
		version, err := s.stateRepo.GetCurrentVersion(ctx, boardID)
		if err != nil {
			logrus.WithField("board_id", boardID).WithError(err).Warn("Failed to read board version")
		}
		state = &BoardState{
			BoardID:    boardID,
			GridSize:   bs.editor.GridSize(),
			Cells:      cells,
			Context:    bs.editor.Context(),
			Version:    version,
			HistoryLen: bs.editor.HistoryLen(),
		}
		return nil
	})
	return state, err
}

// Execute applies cmd to the board.
func (s *EditorService) Execute(ctx context.Context, userID, boardID uint, cmd Command) (*Result, error) {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": boardID, "user_id": userID, "operation": string(cmd.Type)})
	var res *Result
	err := s.withSession(ctx, userID, boardID, func(bs *boardSession) error {
		r, err := s.execute(ctx, bs, cmd)
		if err != nil {
			return err
		}
		r.Context = bs.editor.Context()
		if r.mutated() {
			r.Version = s.record(ctx, bs, userID, cmd.Type, r)
		}
		res = r
		return nil
	})
	if err != nil {
		if !isServiceError(err) {
			logCtx.WithError(err).Error("Command failed")
			return nil, ErrInternalServer
		}
		if errors.Is(err, ErrInvalidAction) {
			logCtx.WithError(err).Debug("Command rejected")
		}
		return nil, err
	}
	return res, nil
}

// Restore loads an archived grid into the board as an undoable step.
func (s *EditorService) Restore(ctx context.Context, userID, boardID uint, snap domain.Snapshot) (*Result, error) {
	var res *Result
	err := s.withSession(ctx, userID, boardID, func(bs *boardSession) error {
		ch, err := bs.editor.Load(snap)
		if err != nil {
			return editError(err)
		}
		res = &Result{Change: &ch, Context: bs.editor.Context()}
		res.Version = s.record(ctx, bs, userID, CommandType(domain.ActionRestore), res)
		return nil
	})
	return res, err
}

// Export renders the current grid of a board.
func (s *EditorService) Export(ctx context.Context, userID, boardID uint, opts ExportOptions) (*Export, error) {
	renderOpts := s.cfg.Render
	if opts.CellPixelSize != 0 {
		renderOpts.CellPixelSize = opts.CellPixelSize
	}
	if opts.Background != "" {
		mode, err := render.ParseBackgroundMode(opts.Background)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		renderOpts.Background = mode
	}
	format := s.cfg.ExportFormat
	if opts.Format != "" {
		f, err := render.ParseFormat(opts.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		format = f
	}
	name := s.cfg.ExportFileName
	if opts.FileName != "" {
		name = opts.FileName
	}

	var out *Export
	err := s.withSession(ctx, userID, boardID, func(bs *boardSession) error {
		img, err := bs.editor.Rasterize(renderOpts)
		if err != nil {
			if errors.Is(err, render.ErrInvalidOptions) {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return err
		}
		var buf bytes.Buffer
		if err := render.Encode(&buf, img, format); err != nil {
			return err
		}
		out = &Export{
			FileName:    render.FileName(name, format),
			ContentType: format.ContentType(),
			Data:        buf.Bytes(),
		}
		return nil
	})
	if err != nil && !isServiceError(err) {
		logrus.WithFields(logrus.Fields{"board_id": boardID, "operation": "Export"}).WithError(err).Error("Export failed")
		return nil, ErrInternalServer
	}
	return out, err
}

// EndStroke finishes any stroke in progress on the board. Used when an
// editing connection goes away mid-drag.
func (s *EditorService) EndStroke(boardID uint) {
	s.mu.Lock()
	bs := s.sessions[boardID]
	s.mu.Unlock()
	if bs == nil {
		return
	}
	bs.mu.Lock()
	bs.editor.EndStroke()
	bs.mu.Unlock()
}

// CurrentGrid returns the live grid of a board for archiving, opening the
// session without an ownership check.
func (s *EditorService) CurrentGrid(ctx context.Context, boardID uint) (domain.Snapshot, error) {
	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return domain.Snapshot{}, ErrBoardNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("load board %d: %w", boardID, err)
	}
	bs, err := s.open(ctx, board)
	if err != nil {
		return domain.Snapshot{}, err
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.editor.Snapshot(), nil
}

// ActiveBoardIDs lists boards with an open session, in ascending order.
func (s *EditorService) ActiveBoardIDs() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close drops the session of a board. Unsaved history is lost; the grid
// itself lives on in the persisted record only if it was saved.
func (s *EditorService) Close(boardID uint) {
	s.mu.Lock()
	delete(s.sessions, boardID)
	s.mu.Unlock()
}

// IdleBoardIDs lists boards whose session was unused for longer than
// maxIdle, skipping the boards in keep, in ascending order.
func (s *EditorService) IdleBoardIDs(maxIdle time.Duration, keep map[uint]bool) []uint {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for id, bs := range s.sessions {
		if keep[id] {
			continue
		}
		bs.mu.Lock()
		idle := bs.lastUsed.Before(cutoff)
		bs.mu.Unlock()
		if idle {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// --- internals ---

func (s *EditorService) withSession(ctx context.Context, userID, boardID uint, fn func(bs *boardSession) error) error {
	board, err := s.Authorize(ctx, userID, boardID)
	if err != nil {
		return err
	}
	bs, err := s.open(ctx, board)
	if err != nil {
		return err
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastUsed = s.now()
	return fn(bs)
}

// open returns the session of a board, hydrating a new one from the
// working copy or, failing that, the saved grid record. A record that does
// not decode is logged and the board starts empty.
func (s *EditorService) open(ctx context.Context, board *domain.Board) (*boardSession, error) {
	s.mu.Lock()
	bs, ok := s.sessions[board.ID]
	s.mu.Unlock()
	if ok {
		return bs, nil
	}

	logCtx := logrus.WithFields(logrus.Fields{"board_id": board.ID, "operation": "openSession"})
	sess, err := editor.New(editor.Options{
		GridSize:        board.GridSize,
		HistoryCapacity: s.cfg.HistoryCapacity,
		FillMode:        s.cfg.FillMode,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to create editor session")
		return nil, ErrInternalServer
	}

	data, err := s.loadStartingGrid(ctx, board.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		logCtx.Debug("No persisted grid, starting empty")
	case err != nil:
		logCtx.WithError(err).Error("Failed to load persisted grid")
		return nil, ErrInternalServer
	default:
		snap, err := domain.DecodeSnapshot(data, board.GridSize)
		if err != nil {
			logCtx.WithError(err).Warn("Persisted grid is corrupt, starting empty")
		} else if err := sess.Hydrate(snap); err != nil {
			logCtx.WithError(err).Warn("Persisted grid does not fit the board, starting empty")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[board.ID]; ok {
		return existing, nil
	}
	bs = &boardSession{board: *board, editor: sess, lastUsed: s.now()}
	s.sessions[board.ID] = bs
	logCtx.Info("Editor session opened")
	return bs, nil
}

// loadStartingGrid prefers the working copy left by the last archive over
// the saved record.
func (s *EditorService) loadStartingGrid(ctx context.Context, boardID uint) ([]byte, error) {
	data, err := s.stateRepo.LoadWorkingGrid(ctx, boardID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.stateRepo.LoadGrid(ctx, boardID)
	}
	return data, err
}

func (s *EditorService) execute(ctx context.Context, bs *boardSession, cmd Command) (*Result, error) {
	ed := bs.editor
	switch cmd.Type {
	case CmdBegin:
		index, err := resolveIndex(ed, cmd)
		if err != nil {
			return nil, err
		}
		button := cmd.Button
		if button == "" {
			button = domain.ButtonPrimary
		}
		if !button.Valid() {
			return nil, fmt.Errorf("%w: unknown button %q", ErrInvalidAction, button)
		}
		return changeResult(ed.BeginStroke(button, index))

	case CmdMove:
		index, err := resolveIndex(ed, cmd)
		if err != nil {
			return nil, err
		}
		return changeResult(ed.ContinueStroke(index))

	case CmdEnd:
		ed.EndStroke()
		return &Result{}, nil

	case CmdPaint, CmdFill:
		index, err := resolveIndex(ed, cmd)
		if err != nil {
			return nil, err
		}
		if cmd.Color != "" {
			c, err := domain.ParseCell(cmd.Color)
			if err != nil {
				return nil, editError(err)
			}
			saved := ed.Context()
			ed.SetContext(saved.WithColor(c))
			defer ed.SetContext(saved)
		}
		if cmd.Type == CmdFill {
			return changeResult(ed.Fill(index))
		}
		return changeResult(ed.Paint(index))

	case CmdErase:
		index, err := resolveIndex(ed, cmd)
		if err != nil {
			return nil, err
		}
		return changeResult(ed.Erase(index))

	case CmdUndo:
		ok, err := ed.Undo()
		if err != nil {
			return nil, editError(err)
		}
		return &Result{Undone: &ok}, nil

	case CmdClear:
		// the record goes first so a failed delete leaves the grid untouched
		if err := s.stateRepo.DeleteGrid(ctx, bs.board.ID); err != nil {
			logrus.WithField("board_id", bs.board.ID).WithError(err).Error("Failed to delete persisted grid on clear")
			return nil, ErrInternalServer
		}
		ch := ed.Clear()
		return &Result{Change: &ch}, nil

	case CmdContext:
		next := ed.Context()
		if cmd.Color != "" {
			c, err := domain.ParseCell(cmd.Color)
			if err != nil {
				return nil, editError(err)
			}
			next = next.WithColor(c)
		}
		if cmd.FillMode != nil {
			next = next.WithFillMode(*cmd.FillMode)
		}
		if cmd.Erase != nil {
			next = next.WithErase(*cmd.Erase)
		}
		ed.SetContext(next)
		return &Result{}, nil

	case CmdSave:
		data, err := domain.EncodeSnapshot(ed.Snapshot())
		if err != nil {
			return nil, err
		}
		if err := s.stateRepo.SaveGrid(ctx, bs.board.ID, data); err != nil {
			logrus.WithField("board_id", bs.board.ID).WithError(err).Error("Failed to save grid")
			return nil, ErrInternalServer
		}
		return &Result{Saved: true}, nil

	case CmdLoad:
		loaded := false
		data, err := s.stateRepo.LoadGrid(ctx, bs.board.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return &Result{Loaded: &loaded}, nil
		}
		if err != nil {
			logrus.WithField("board_id", bs.board.ID).WithError(err).Error("Failed to load grid")
			return nil, ErrInternalServer
		}
		snap, err := domain.DecodeSnapshot(data, ed.GridSize())
		if err != nil {
			logrus.WithField("board_id", bs.board.ID).WithError(err).Warn("Persisted grid is corrupt, load skipped")
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		ch, err := ed.Load(snap)
		if err != nil {
			return nil, editError(err)
		}
		loaded = true
		return &Result{Change: &ch, Loaded: &loaded}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidAction, cmd.Type)
}

// record bumps the board version and enqueues the edit for the action
// log. Failures are logged; the edit itself already happened.
func (s *EditorService) record(ctx context.Context, bs *boardSession, userID uint, cmdType CommandType, res *Result) uint {
	logCtx := logrus.WithFields(logrus.Fields{"board_id": bs.board.ID, "user_id": userID, "operation": string(cmdType)})

	version, err := s.stateRepo.IncrementVersion(ctx, bs.board.ID)
	if err != nil {
		logCtx.WithError(err).Warn("Failed to increment board version")
	}
	if s.enqueuer == nil {
		return version
	}

	action := domain.Action{
		BoardID:    bs.board.ID,
		UserID:     userID,
		ActionType: actionType(cmdType, res),
		Timestamp:  s.now().UTC(),
		Version:    version,
	}
	data := domain.EditData{}
	if ch := res.Change; ch != nil {
		data.Index = ch.Index
		if !ch.Color.IsEmpty() && !ch.Whole {
			data.Color = ch.Color.Hex()
		}
		data.Changed = len(ch.Indices)
		if ch.Whole {
			data.Changed = bs.editor.GridSize() * bs.editor.GridSize()
		}
	}
	if err := action.SetData(data); err != nil {
		logCtx.WithError(err).Error("Failed to encode action data")
		return version
	}
	task, err := tasks.NewActionPersistenceTask(action)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build action persistence task")
		return version
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		logCtx.WithError(err).Warn("Failed to enqueue action persistence task")
	}
	return version
}

func (r *Result) mutated() bool {
	if r.Undone != nil {
		return *r.Undone
	}
	return r.Change != nil && r.Change.Changed()
}

func actionType(cmdType CommandType, res *Result) string {
	if res.Undone != nil {
		return domain.ActionUndo
	}
	if cmdType == CommandType(domain.ActionRestore) {
		return domain.ActionRestore
	}
	if res.Change == nil {
		return string(cmdType)
	}
	switch res.Change.Kind {
	case editor.ChangeErase:
		return domain.ActionErase
	case editor.ChangeFill:
		return domain.ActionFill
	case editor.ChangeClear:
		return domain.ActionClear
	case editor.ChangeLoad:
		return domain.ActionLoad
	}
	return domain.ActionPaint
}

func resolveIndex(ed *editor.Session, cmd Command) (int, error) {
	if cmd.Index != nil {
		return *cmd.Index, nil
	}
	if cmd.Row != nil && cmd.Col != nil {
		i, err := ed.IndexOf(*cmd.Row, *cmd.Col)
		if err != nil {
			return 0, editError(err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: index or row and col required", ErrInvalidAction)
}

func changeResult(ch editor.Change, err error) (*Result, error) {
	if err != nil {
		return nil, editError(err)
	}
	return &Result{Change: &ch}, nil
}

// editError turns caller mistakes reported by the editor into
// ErrInvalidAction.
func editError(err error) error {
	switch {
	case errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrInvalidColor),
		errors.Is(err, domain.ErrSizeMismatch),
		errors.Is(err, editor.ErrNoStroke):
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return err
}

func isServiceError(err error) bool {
	for _, target := range []error{ErrBoardNotFound, ErrForbidden, ErrInvalidInput, ErrInvalidAction, ErrInternalServer} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// encodeCells lists the cells as "#rrggbb", with "" for empty cells.
func encodeCells(snap domain.Snapshot) []string {
	cells := make([]string, snap.Len())
	for i := range cells {
		if c := snap.At(i); !c.IsEmpty() {
			cells[i] = c.Hex()
		}
	}
	return cells
}
