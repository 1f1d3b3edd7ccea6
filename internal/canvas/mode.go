package canvas

import "log/slog"

// ToolMode is the editor's exclusive interaction state.
type ToolMode string

const (
	ModeDraw ToolMode = "draw"
	ModeMove ToolMode = "move"
)

// Valid reports whether m is a known mode.
func (m ToolMode) Valid() bool {
	return m == ModeDraw || m == ModeMove
}

// SetMode is the explicit tool-select action. Entering a mode always runs its
// entry effects, even when the editor is already in that mode.
func (e *Editor) SetMode(m ToolMode) bool {
	switch m {
	case ModeDraw:
		e.enterDraw()
	case ModeMove:
		e.enterMove()
	default:
		slog.Debug("unknown tool mode", "mode", m)
		return false
	}
	return true
}

// SelectColor sets the active brush color and switches to Draw.
func (e *Editor) SelectColor(color string) bool {
	if color == "" {
		return false
	}
	e.color = color
	e.enterDraw()
	return true
}

// SetBrushTool picks pen or eraser for the next stroke. The mode is unchanged.
func (e *Editor) SetBrushTool(t Tool) bool {
	if !t.Valid() {
		return false
	}
	e.tool = t
	return true
}

// SetBrushSize sets the width of the next stroke.
func (e *Editor) SetBrushSize(size float64) bool {
	if size <= 0 || !finite(size) {
		return false
	}
	e.brushSize = size
	return true
}

func (e *Editor) enterDraw() {
	e.endTransform()
	e.selection = ""
	e.layers.setDraggable(false)
	e.mode = ModeDraw
}

func (e *Editor) enterMove() {
	e.commitStroke()
	e.layers.setDraggable(true)
	e.mode = ModeMove
}
