package canvas

import "log/slog"

// transformSession is an open drag/resize/rotate on the selected layer.
type transformSession struct {
	layerID string
	before  Transform
}

// dragState tracks a pointer drag that started on the selected layer.
type dragState struct {
	origin Point
	start  Transform
}

// Selection returns the selected image layer id, or "" when nothing is
// selected.
func (e *Editor) Selection() string {
	return e.selection
}

// ClickLayer selects an image layer. Unknown or hidden layers deselect.
func (e *Editor) ClickLayer(id string) bool {
	if e.mode != ModeMove {
		return false
	}
	l, ok := e.layers.Image(id)
	if !ok || !l.Visible {
		e.deselect()
		return false
	}
	if e.selection != id {
		e.endTransform()
	}
	e.selection = id
	return true
}

// ClickBackground clears the selection.
func (e *Editor) ClickBackground() bool {
	if e.mode != ModeMove {
		return false
	}
	e.deselect()
	return true
}

// BeginTransform opens a transform on the selected layer, remembering its
// current transform for the history entry.
func (e *Editor) BeginTransform() bool {
	if e.transform != nil {
		return true
	}
	l, ok := e.selected()
	if !ok {
		return false
	}
	e.transform = &transformSession{layerID: l.ID, before: l.Transform}
	return true
}

// Translate moves the selected layer to x, y.
func (e *Editor) Translate(x, y float64) bool {
	if !finite(x, y) || !e.BeginTransform() {
		return false
	}
	l, _ := e.selected()
	t := l.Transform
	t.X, t.Y = x, y
	return e.setTransform(l.ID, t)
}

// Resize applies a proposed bounding box to the selected layer. Boxes
// smaller than MinLayerSize in either dimension are rejected and the layer
// keeps its previous box.
func (e *Editor) Resize(b Box) bool {
	if !e.BeginTransform() {
		return false
	}
	l, _ := e.selected()
	t := l.Transform
	if !validBox(b) || t.Width <= 0 || t.Height <= 0 {
		slog.Debug("resize rejected", "layer", l.ID, "width", b.Width, "height", b.Height)
		return false
	}
	t.X, t.Y = b.X, b.Y
	t.ScaleX = b.Width / t.Width
	t.ScaleY = b.Height / t.Height
	return e.setTransform(l.ID, t)
}

// Rotate sets the selected layer's rotation in degrees.
func (e *Editor) Rotate(degrees float64) bool {
	if !finite(degrees) || !e.BeginTransform() {
		return false
	}
	l, _ := e.selected()
	t := l.Transform
	t.Rotation = degrees
	return e.setTransform(l.ID, t)
}

// setTransform applies t to a layer. Transforms that would put a corner at
// a non-finite position are rejected and the layer keeps its old one.
func (e *Editor) setTransform(id string, t Transform) bool {
	if !placeable(t) {
		slog.Debug("transform rejected", "layer", id, "transform", t)
		return false
	}
	return e.layers.setTransform(id, t)
}

// EndTransform is the handle release: it records the change in history.
func (e *Editor) EndTransform() bool {
	return e.endTransform()
}

func (e *Editor) endTransform() bool {
	ts := e.transform
	e.transform = nil
	e.drag = nil
	if ts == nil {
		return false
	}
	l, ok := e.layers.Image(ts.layerID)
	if !ok || l.Transform == ts.before {
		return false
	}
	return e.execute(Entry{
		Type:    EntryTransformImage,
		LayerID: ts.layerID,
		Before:  ts.before,
		After:   l.Transform,
	})
}

// startDrag begins moving the selected layer with the pointer.
func (e *Editor) startDrag(p Point) {
	l, ok := e.selected()
	if !ok || !l.Draggable || !e.BeginTransform() {
		return
	}
	e.drag = &dragState{origin: p, start: l.Transform}
}

func (e *Editor) dragTo(p Point) bool {
	if e.drag == nil {
		return false
	}
	return e.Translate(e.drag.start.X+p.X-e.drag.origin.X, e.drag.start.Y+p.Y-e.drag.origin.Y)
}

func (e *Editor) selected() (*ImageLayer, bool) {
	if e.selection == "" {
		return nil, false
	}
	return e.layers.Image(e.selection)
}

func (e *Editor) deselect() {
	e.endTransform()
	e.selection = ""
}

// validateSelection drops a selection that no longer points at a visible
// image layer.
func (e *Editor) validateSelection() {
	if e.selection == "" {
		return
	}
	if l, ok := e.layers.Image(e.selection); !ok || !l.Visible {
		e.transform = nil
		e.drag = nil
		e.selection = ""
	}
}
