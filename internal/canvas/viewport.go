package canvas

// Size is a canvas size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is the client-space rectangle of the canvas element.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

// PointerEvent is a device pointer sample in client coordinates together with
// the canvas element's client rect at the time of the event.
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Bounds  Rect    `json:"bounds"`
}

// Viewport owns the canvas pixel size. Height is fixed; width follows the
// container.
type Viewport struct {
	size     Size
	maxWidth int
}

// NewViewport creates a viewport of the given fixed height. A maxWidth of
// zero leaves the width unbounded.
func NewViewport(width, height, maxWidth int) *Viewport {
	v := &Viewport{size: Size{Height: height}, maxWidth: maxWidth}
	v.Resize(width)
	return v
}

// Size returns the current canvas size.
func (v *Viewport) Size() Size {
	return v.size
}

// Resize recomputes the canvas size for a new container width. Non-positive
// widths leave the size unchanged.
func (v *Viewport) Resize(containerWidth int) Size {
	if containerWidth <= 0 {
		return v.size
	}
	if v.maxWidth > 0 && containerWidth > v.maxWidth {
		containerWidth = v.maxWidth
	}
	v.size.Width = containerWidth
	return v.size
}

// ToCanvasSpace maps a pointer event into canvas coordinates. Events outside
// the canvas element are not delivered.
func (v *Viewport) ToCanvasSpace(ev PointerEvent) (Point, bool) {
	b := ev.Bounds
	if b.Width <= 0 || b.Height <= 0 || !b.Contains(ev.ClientX, ev.ClientY) {
		return Point{}, false
	}
	sx := float64(v.size.Width) / b.Width
	sy := float64(v.size.Height) / b.Height
	return Point{
		X: (ev.ClientX - b.Left) * sx,
		Y: (ev.ClientY - b.Top) * sy,
	}, true
}
