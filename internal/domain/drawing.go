package domain

// Button identifies which pointer button started a stroke.
type Button string

const (
	ButtonPrimary   Button = "primary"   // paint, or fill when fill mode is on
	ButtonSecondary Button = "secondary" // erase
	ButtonTertiary  Button = "tertiary"  // fill regardless of fill mode, for this press only
)

// Valid reports whether b is a known button.
func (b Button) Valid() bool {
	switch b {
	case ButtonPrimary, ButtonSecondary, ButtonTertiary:
		return true
	}
	return false
}

// Tool is the operation a stroke applies to the cells it touches.
type Tool string

const (
	ToolPaint Tool = "paint"
	ToolErase Tool = "erase"
	ToolFill  Tool = "fill"
)

// DrawingContext is the drawing state handed to every paint or fill call.
// It is a value; changing the current color produces a new context.
type DrawingContext struct {
	Color    Cell `json:"color"`
	Erase    bool `json:"erase"` // primary button erases (eraser tool selected)
	FillMode bool `json:"fill_mode"`
}

// DefaultDrawingContext paints black with fill mode as configured.
func DefaultDrawingContext(fillMode bool) DrawingContext {
	return DrawingContext{Color: RGB(0, 0, 0), FillMode: fillMode}
}

// WithColor returns a copy using c as the current color.
func (d DrawingContext) WithColor(c Cell) DrawingContext {
	d.Color = c
	return d
}

// WithFillMode returns a copy with fill mode set to on.
func (d DrawingContext) WithFillMode(on bool) DrawingContext {
	d.FillMode = on
	return d
}

// WithErase returns a copy with the eraser tool toggled.
func (d DrawingContext) WithErase(on bool) DrawingContext {
	d.Erase = on
	return d
}

// ToolFor resolves which tool a press of b applies. The tertiary button
// forces a fill without touching FillMode.
func (d DrawingContext) ToolFor(b Button) Tool {
	switch b {
	case ButtonSecondary:
		return ToolErase
	case ButtonTertiary:
		return ToolFill
	}
	switch {
	case d.Erase:
		return ToolErase
	case d.FillMode:
		return ToolFill
	}
	return ToolPaint
}
