// Package editor holds one editing session: a grid, its undo history and
// the drawing context, plus the stroke rules that turn pointer events into
// grid mutations.
//
// A Session is not safe for concurrent use; the service layer serializes
// access to it.
package editor

import (
	"errors"
	"fmt"
	"image"

	"pixel-board/internal/domain"
	"pixel-board/internal/render"
)

// ErrNoStroke is returned by ContinueStroke when no stroke is active.
var ErrNoStroke = errors.New("editor: no active stroke")

// Options configures a new session.
type Options struct {
	GridSize        int
	HistoryCapacity int
	FillMode        bool
}

// DefaultOptions mirrors the stock editor: 64×64 grid, 100 undo steps.
func DefaultOptions() Options {
	return Options{GridSize: domain.DefaultGridSize, HistoryCapacity: domain.DefaultHistoryCapacity}
}

// ChangeKind names what a mutation did.
type ChangeKind string

const (
	ChangePaint ChangeKind = "paint"
	ChangeErase ChangeKind = "erase"
	ChangeFill  ChangeKind = "fill"
	ChangeClear ChangeKind = "clear"
	ChangeUndo  ChangeKind = "undo"
	ChangeLoad  ChangeKind = "load"
)

// Change describes the outcome of one mutating call.
type Change struct {
	Kind    ChangeKind  `json:"kind"`
	Index   int         `json:"index"`
	Color   domain.Cell `json:"color"`   // color written, Empty for erase/clear
	Indices []int       `json:"indices"` // cells that changed; nil for whole-grid changes
	Whole   bool        `json:"whole"`   // every cell may have changed
}

// Changed reports whether the call altered the grid.
func (c Change) Changed() bool {
	return c.Whole || len(c.Indices) > 0
}

type stroke struct {
	button domain.Button
}

// dragTool is the tool applied to cells entered while the stroke is held.
// The tertiary button's forced fill covers the press only; dragging with
// it behaves like the primary button.
func (st *stroke) dragTool(ctx domain.DrawingContext) domain.Tool {
	if st.button == domain.ButtonSecondary {
		return domain.ToolErase
	}
	return ctx.ToolFor(domain.ButtonPrimary)
}

// Session is one board being edited.
type Session struct {
	grid    *domain.Grid
	history *domain.History
	ctx     domain.DrawingContext
	stroke  *stroke
}

// New creates a session with an all-empty grid.
func New(opts Options) (*Session, error) {
	if opts.GridSize == 0 {
		opts.GridSize = domain.DefaultGridSize
	}
	g, err := domain.NewGrid(opts.GridSize)
	if err != nil {
		return nil, err
	}
	return &Session{
		grid:    g,
		history: domain.NewHistory(opts.HistoryCapacity),
		ctx:     domain.DefaultDrawingContext(opts.FillMode),
	}, nil
}

// Hydrate replaces the grid content without touching history. Used once
// when a session is opened from persisted state.
func (s *Session) Hydrate(snap domain.Snapshot) error {
	return s.grid.Restore(snap)
}

// GridSize returns N.
func (s *Session) GridSize() int { return s.grid.Size() }

// Context returns the current drawing context.
func (s *Session) Context() domain.DrawingContext { return s.ctx }

// SetContext replaces the drawing context.
func (s *Session) SetContext(ctx domain.DrawingContext) { s.ctx = ctx }

// Snapshot copies the current grid.
func (s *Session) Snapshot() domain.Snapshot { return s.grid.ToSnapshot() }

// Cell returns the cell at i.
func (s *Session) Cell(i int) (domain.Cell, error) { return s.grid.Get(i) }

// IndexOf converts row/col to an index on this grid.
func (s *Session) IndexOf(row, col int) (int, error) { return s.grid.IndexOf(row, col) }

// HistoryLen returns the number of undo steps available.
func (s *Session) HistoryLen() int { return s.history.Len() }

// StrokeActive reports whether a stroke is in progress.
func (s *Session) StrokeActive() bool { return s.stroke != nil }

// BeginStroke handles a pointer press of button b on cell index.
// The grid is snapshotted first, except for fills that change nothing.
func (s *Session) BeginStroke(b domain.Button, index int) (Change, error) {
	if !b.Valid() {
		return Change{}, fmt.Errorf("editor: unknown button %q", b)
	}
	if _, err := s.grid.Get(index); err != nil {
		return Change{}, err
	}
	s.stroke = &stroke{button: b}
	return s.applyWithHistory(s.ctx.ToolFor(b), index)
}

// ContinueStroke applies the active stroke to a cell the pointer entered.
// The whole stroke shares the snapshot taken by BeginStroke.
func (s *Session) ContinueStroke(index int) (Change, error) {
	if s.stroke == nil {
		return Change{}, ErrNoStroke
	}
	return s.apply(s.stroke.dragTool(s.ctx), index)
}

// EndStroke finishes the active stroke, if any.
func (s *Session) EndStroke() { s.stroke = nil }

// Paint colors one cell with the current color as its own undo step.
func (s *Session) Paint(index int) (Change, error) {
	return s.applyWithHistory(domain.ToolPaint, index)
}

// Erase empties one cell as its own undo step.
func (s *Session) Erase(index int) (Change, error) {
	return s.applyWithHistory(domain.ToolErase, index)
}

// Fill flood-fills from index with the current color as its own undo step.
func (s *Session) Fill(index int) (Change, error) {
	return s.applyWithHistory(domain.ToolFill, index)
}

// Undo restores the previous state. It returns false when there is
// nothing to undo.
func (s *Session) Undo() (bool, error) {
	s.stroke = nil
	return s.history.Undo(s.grid)
}

// Clear empties the grid; it can be undone.
func (s *Session) Clear() Change {
	s.stroke = nil
	s.history.Push(s.grid)
	s.grid.Clear()
	return Change{Kind: ChangeClear, Whole: true}
}

// Load replaces the grid with snap as an undoable step.
func (s *Session) Load(snap domain.Snapshot) (Change, error) {
	if snap.Len() != s.grid.Len() {
		return Change{}, fmt.Errorf("%w: snapshot has %d cells, grid has %d", domain.ErrSizeMismatch, snap.Len(), s.grid.Len())
	}
	s.stroke = nil
	s.history.Push(s.grid)
	if err := s.grid.Restore(snap); err != nil {
		return Change{}, err
	}
	return Change{Kind: ChangeLoad, Whole: true}, nil
}

// Rasterize renders the current grid.
func (s *Session) Rasterize(opts render.Options) (*image.NRGBA, error) {
	return render.Rasterize(s.grid.ToSnapshot(), opts)
}

func (s *Session) applyWithHistory(tool domain.Tool, index int) (Change, error) {
	if _, err := s.grid.Get(index); err != nil {
		return Change{}, err
	}
	if tool == domain.ToolFill {
		// skip the snapshot when the fill would not change anything
		start, _ := s.grid.Get(index)
		if domain.SameColor(start, s.ctx.Color) {
			return Change{Kind: ChangeFill, Index: index, Color: s.ctx.Color}, nil
		}
	}
	s.history.Push(s.grid)
	return s.apply(tool, index)
}

func (s *Session) apply(tool domain.Tool, index int) (Change, error) {
	switch tool {
	case domain.ToolFill:
		changed, err := domain.FloodFill(s.grid, index, s.ctx.Color)
		if err != nil {
			return Change{}, err
		}
		return Change{Kind: ChangeFill, Index: index, Color: s.ctx.Color, Indices: changed}, nil
	case domain.ToolErase:
		return s.setCell(ChangeErase, index, domain.Empty)
	default:
		return s.setCell(ChangePaint, index, s.ctx.Color)
	}
}

func (s *Session) setCell(kind ChangeKind, index int, c domain.Cell) (Change, error) {
	prev, err := s.grid.Get(index)
	if err != nil {
		return Change{}, err
	}
	ch := Change{Kind: kind, Index: index, Color: c}
	if prev == c {
		return ch, nil
	}
	if err := s.grid.Set(index, c); err != nil {
		return Change{}, err
	}
	ch.Indices = []int{index}
	return ch, nil
}
