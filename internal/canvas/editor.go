package canvas

import (
	"image"
	"image/color"
	"log/slog"

	"github.com/partyplanner/studio/backend-go/internal/typeid"
)

// DefaultPalette is used when no palette is configured.
var DefaultPalette = []string{
	"#000000", "#ffffff", "#e53935", "#fb8c00", "#fdd835",
	"#43a047", "#1e88e5", "#8e24aa", "#ec407a",
}

// Options configures a new Editor.
type Options struct {
	Width        int
	Height       int
	MaxWidth     int
	Palette      []string
	BrushSize    float64
	HistoryLimit int
	Background   color.Color // nil exports a transparent background
}

// DefaultOptions returns sensible defaults for an editor.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    600,
		Palette:   DefaultPalette,
		BrushSize: 5,
	}
}

// ImportRequest describes a decoded bitmap handed over by the image import flow.
type ImportRequest struct {
	AssetID string  `json:"assetId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// State is the editor state a toolbar highlights.
type State struct {
	Mode      ToolMode `json:"mode"`
	Selection string   `json:"selection,omitempty"`
	Color     string   `json:"color"`
	Tool      Tool     `json:"tool"`
	BrushSize float64  `json:"brushSize"`
	Drawing   bool     `json:"drawing"`
	CanUndo   bool     `json:"canUndo"`
	CanRedo   bool     `json:"canRedo"`
	Viewport  Size     `json:"viewport"`
}

// Editor is the layered design canvas. It owns the layer registry and every
// controller that mutates it.
//
// An Editor is not safe for concurrent use; callers deliver input events one
// at a time, each running to completion.
type Editor struct {
	viewport   *Viewport
	layers     *Registry
	history    *History
	compositor *Compositor

	mode      ToolMode
	palette   []string
	color     string
	tool      Tool
	brushSize float64

	capture   strokeCapture
	selection string
	transform *transformSession
	drag      *dragState
}

// NewEditor creates an editor in Move mode with an empty drawing layer.
func NewEditor(opts Options) *Editor {
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	brush := opts.BrushSize
	if brush <= 0 {
		brush = DefaultOptions().BrushSize
	}

	return &Editor{
		viewport:   NewViewport(opts.Width, opts.Height, opts.MaxWidth),
		layers:     NewRegistry(typeid.NewLayerID()),
		history:    NewHistory(opts.HistoryLimit),
		compositor: &Compositor{Background: opts.Background},
		mode:       ModeMove,
		palette:    palette,
		color:      palette[0],
		tool:       ToolPen,
		brushSize:  brush,
	}
}

// --- Input ---

// ResizeViewport recomputes the canvas size for a new container width.
func (e *Editor) ResizeViewport(containerWidth int) Size {
	return e.viewport.Resize(containerWidth)
}

// PointerDown starts a stroke in Draw mode, or selects and starts dragging
// the layer under the pointer in Move mode. Events outside the canvas are
// ignored.
func (e *Editor) PointerDown(ev PointerEvent) bool {
	p, ok := e.viewport.ToCanvasSpace(ev)
	if !ok {
		return false
	}

	switch e.mode {
	case ModeDraw:
		e.commitStroke()
		e.capture.begin(typeid.NewStrokeID(), e.color, e.brushSize, e.tool)
		return true
	default:
		id := e.layers.hitTest(p.X, p.Y)
		if id == "" {
			return e.ClickBackground()
		}
		if !e.ClickLayer(id) {
			return false
		}
		e.startDrag(p)
		return true
	}
}

// PointerMove extends the open stroke or the active drag.
func (e *Editor) PointerMove(ev PointerEvent) bool {
	p, ok := e.viewport.ToCanvasSpace(ev)
	if !ok {
		return false
	}
	if e.capture.open() {
		return e.capture.add(p)
	}
	return e.dragTo(p)
}

// PointerUp finalizes whatever the pointer was doing. It needs no position,
// so a release delivered anywhere commits exactly once.
func (e *Editor) PointerUp() bool {
	if e.capture.open() {
		return e.commitStroke()
	}
	if e.drag != nil {
		return e.endTransform()
	}
	return false
}

func (e *Editor) commitStroke() bool {
	if !e.capture.open() {
		return false
	}
	s, ok := e.capture.finish()
	if !ok {
		slog.Debug("discarded empty stroke")
		return false
	}
	return e.execute(Entry{Type: EntryAddStroke, Stroke: &s})
}

// --- Layer operations ---

// ImportImage places a new image layer on top of the existing images and
// returns its id.
func (e *Editor) ImportImage(req ImportRequest) (string, bool) {
	if req.AssetID == "" || req.Width <= 0 || req.Height <= 0 || !finite(req.X, req.Y, req.Width, req.Height) {
		slog.Debug("import rejected", "asset", req.AssetID, "width", req.Width, "height", req.Height)
		return "", false
	}
	l := ImageLayer{
		ID:      typeid.NewLayerID(),
		Name:    e.layers.nextImageName(),
		AssetID: req.AssetID,
		Transform: Transform{
			X:      req.X,
			Y:      req.Y,
			Width:  req.Width,
			Height: req.Height,
			ScaleX: 1,
			ScaleY: 1,
		},
		Visible:   true,
		Draggable: e.mode == ModeMove,
	}
	if !e.execute(Entry{Type: EntryImportImage, Image: &l, Index: len(e.layers.order)}) {
		return "", false
	}
	return l.ID, true
}

// RemoveImage deletes an image layer.
func (e *Editor) RemoveImage(id string) bool {
	l, ok := e.layers.Image(id)
	if !ok {
		return false
	}
	if e.selection == id {
		e.deselect()
	}
	removed := *l
	return e.execute(Entry{
		Type:  EntryRemoveImage,
		Image: &removed,
		Index: e.layers.indexOf(id),
	})
}

// ToggleVisibility flips the visibility of any layer, including the drawing
// layer. Hiding the selected layer deselects it.
func (e *Editor) ToggleVisibility(id string) bool {
	visible, ok := e.layers.Visible(id)
	if !ok {
		return false
	}
	if e.selection == id && visible {
		e.deselect()
	}
	return e.execute(Entry{
		Type:          EntryToggleVisibility,
		LayerID:       id,
		VisibleBefore: visible,
		VisibleAfter:  !visible,
	})
}

// ClearAll removes every image and stroke as one undoable edit.
func (e *Editor) ClearAll() bool {
	e.commitStroke()
	e.deselect()
	if len(e.layers.order) == 0 && len(e.layers.drawing.Strokes) == 0 {
		return false
	}
	prev := e.layers.Snapshot()
	return e.execute(Entry{Type: EntryClearAll, Previous: &prev})
}

// --- History ---

// Undo reverts the last edit. Any open stroke or transform is committed
// first so that it is what gets undone.
func (e *Editor) Undo() bool {
	e.commitStroke()
	e.endTransform()
	ok, err := e.history.Undo(e.layers)
	if err != nil {
		slog.Warn("undo failed", "error", err)
	}
	e.afterHistory()
	return ok
}

// Redo re-applies the last undone edit.
func (e *Editor) Redo() bool {
	e.commitStroke()
	e.endTransform()
	ok, err := e.history.Redo(e.layers)
	if err != nil {
		slog.Warn("redo failed", "error", err)
	}
	e.afterHistory()
	return ok
}

func (e *Editor) execute(entry Entry) bool {
	if err := e.history.Execute(e.layers, entry); err != nil {
		slog.Warn("edit failed", "type", entry.Type, "error", err)
		return false
	}
	return true
}

func (e *Editor) afterHistory() {
	e.layers.setDraggable(e.mode == ModeMove)
	e.validateSelection()
}

// --- Queries ---

// Mode returns the current tool mode.
func (e *Editor) Mode() ToolMode {
	return e.mode
}

// Palette returns the configured palette.
func (e *Editor) Palette() []string {
	return e.palette
}

// State returns the toolbar-facing state.
func (e *Editor) State() State {
	return State{
		Mode:      e.mode,
		Selection: e.selection,
		Color:     e.color,
		Tool:      e.tool,
		BrushSize: e.brushSize,
		Drawing:   e.capture.open(),
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
		Viewport:  e.viewport.Size(),
	}
}

// Layers returns the layer list for the layers panel, bottom to top.
func (e *Editor) Layers() []LayerInfo {
	return e.layers.Layers()
}

// Registry exposes the layer registry for read access.
func (e *Editor) Registry() *Registry {
	return e.layers
}

// Snapshot copies the current layer contents.
func (e *Editor) Snapshot() Snapshot {
	return e.layers.Snapshot()
}

// HitTest returns the id of the topmost visible image at canvas x, y.
func (e *Editor) HitTest(x, y float64) string {
	return e.layers.hitTest(x, y)
}

// Export flattens every visible layer at the current viewport size.
func (e *Editor) Export(src BitmapSource) *image.RGBA {
	return e.compositor.Export(e.layers, e.viewport.Size(), src)
}
