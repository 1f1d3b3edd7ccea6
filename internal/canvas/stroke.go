package canvas

import "slices"

// Tool is the brush applied by a stroke.
type Tool string

const (
	// ToolPen paints the stroke color.
	ToolPen Tool = "pen"
	// ToolEraser clears previously painted pixels of the drawing layer.
	ToolEraser Tool = "eraser"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolPen || t == ToolEraser
}

// Composite returns the Canvas2D composite operation a renderer should use.
func (t Tool) Composite() string {
	if t == ToolEraser {
		return "destination-out"
	}
	return "source-over"
}

// Stroke is one continuous pen or eraser path. It is never modified after it
// has been appended to the drawing layer.
type Stroke struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Tool   Tool    `json:"tool"`
}

// strokeCapture accumulates pointer samples between a pointer-down and the
// matching pointer-up.
type strokeCapture struct {
	current *Stroke
}

func (c *strokeCapture) open() bool {
	return c.current != nil
}

func (c *strokeCapture) begin(id, color string, width float64, tool Tool) {
	c.current = &Stroke{
		ID:    id,
		Color: color,
		Width: width,
		Tool:  tool,
	}
}

func (c *strokeCapture) add(p Point) bool {
	if c.current == nil {
		return false
	}
	c.current.Points = append(c.current.Points, p)
	return true
}

// finish closes the open stroke. The stroke is returned only when it holds
// at least one point.
func (c *strokeCapture) finish() (Stroke, bool) {
	s := c.current
	c.current = nil
	if s == nil || len(s.Points) == 0 {
		return Stroke{}, false
	}
	s.Points = slices.Clip(s.Points)
	return *s, true
}

// preview returns the in-progress stroke for rendering.
func (c *strokeCapture) preview() (Stroke, bool) {
	if c.current == nil || len(c.current.Points) == 0 {
		return Stroke{}, false
	}
	return *c.current, true
}
