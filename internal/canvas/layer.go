package canvas

import (
	"fmt"
	"math"
	"slices"
)

// LayerKind distinguishes placed images from the freehand drawing surface.
type LayerKind string

const (
	LayerImage   LayerKind = "image"
	LayerDrawing LayerKind = "drawing"
)

// MinLayerSize is the smallest width or height, in logical units, an image
// layer may be resized to.
const MinLayerSize = 20.0

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned box in the layer's own (unrotated) frame.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform is the position, base size, scale and rotation of an image layer.
// Width and Height are the size the image was placed at; the rendered size is
// Width*ScaleX by Height*ScaleY.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

// Box returns the effective bounding box of the transform.
func (t Transform) Box() Box {
	return Box{
		X:      t.X,
		Y:      t.Y,
		Width:  t.Width * t.ScaleX,
		Height: t.Height * t.ScaleY,
	}
}

// ImageLayer is a placed bitmap. The bitmap itself is owned by the asset
// store and referenced by AssetID.
type ImageLayer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AssetID   string    `json:"assetId"`
	Transform Transform `json:"transform"`
	Visible   bool      `json:"visible"`
	Draggable bool      `json:"draggable"`
}

// contains reports whether a canvas-space point falls inside the layer,
// honouring rotation and scale.
func (l *ImageLayer) contains(x, y float64) bool {
	inv, ok := FromTransform(l.Transform).Invert()
	if !ok {
		return false
	}
	lx, ly := inv.TransformPoint(x, y)
	return lx >= 0 && lx <= l.Transform.Width && ly >= 0 && ly <= l.Transform.Height
}

// corners returns the four corners of the layer in canvas space, clockwise
// from the top-left.
func (l *ImageLayer) corners() []Point {
	return transformCorners(l.Transform)
}

func transformCorners(t Transform) []Point {
	m := FromTransform(t)
	w, h := t.Width, t.Height
	pts := make([]Point, 0, 4)
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		x, y := m.TransformPoint(c[0], c[1])
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}

// DrawingLayer is the single freehand surface. Strokes render in slice order.
type DrawingLayer struct {
	ID      string   `json:"id"`
	Visible bool     `json:"visible"`
	Strokes []Stroke `json:"strokes"`
}

// LayerInfo is the row the layers panel shows.
type LayerInfo struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    LayerKind `json:"kind"`
	Visible bool      `json:"visible"`
}

// Snapshot is a full copy of the registry contents.
type Snapshot struct {
	Images  []ImageLayer `json:"images"`
	Drawing DrawingLayer `json:"drawing"`
}

// Registry holds every layer of a canvas. Image layers live in a map keyed by
// id with a separate order slice; the drawing layer always composites last.
type Registry struct {
	images   map[string]*ImageLayer
	order    []string
	drawing  DrawingLayer
	imported int
}

// NewRegistry creates a registry holding only an empty, visible drawing layer.
func NewRegistry(drawingID string) *Registry {
	return &Registry{
		images:  make(map[string]*ImageLayer),
		drawing: DrawingLayer{ID: drawingID, Visible: true},
	}
}

// Image returns the image layer with the given id.
func (r *Registry) Image(id string) (*ImageLayer, bool) {
	l, ok := r.images[id]
	return l, ok
}

// Images returns the image layers in compositing order.
func (r *Registry) Images() []*ImageLayer {
	out := make([]*ImageLayer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.images[id])
	}
	return out
}

// Drawing returns the drawing layer.
func (r *Registry) Drawing() *DrawingLayer {
	return &r.drawing
}

// Layers lists every layer bottom to top: images in import order, then the
// drawing layer.
func (r *Registry) Layers() []LayerInfo {
	infos := make([]LayerInfo, 0, len(r.order)+1)
	for _, l := range r.Images() {
		infos = append(infos, LayerInfo{ID: l.ID, Name: l.Name, Kind: LayerImage, Visible: l.Visible})
	}
	infos = append(infos, LayerInfo{ID: r.drawing.ID, Name: "Drawing", Kind: LayerDrawing, Visible: r.drawing.Visible})
	return infos
}

// Visible returns the visibility of any layer.
func (r *Registry) Visible(id string) (visible, ok bool) {
	if id == r.drawing.ID {
		return r.drawing.Visible, true
	}
	if l, ok := r.images[id]; ok {
		return l.Visible, true
	}
	return false, false
}

// nextImageName hands out "Image 1", "Image 2", ... in import order.
func (r *Registry) nextImageName() string {
	r.imported++
	return fmt.Sprintf("Image %d", r.imported)
}

func (r *Registry) setVisible(id string, visible bool) bool {
	if id == r.drawing.ID {
		r.drawing.Visible = visible
		return true
	}
	l, ok := r.images[id]
	if !ok {
		return false
	}
	l.Visible = visible
	return true
}

// insertImage places a copy of l at index in the compositing order, or at the
// top of the image stack when index is out of range.
func (r *Registry) insertImage(l ImageLayer, index int) {
	if _, exists := r.images[l.ID]; exists {
		return
	}
	r.images[l.ID] = &l
	if index < 0 || index > len(r.order) {
		index = len(r.order)
	}
	r.order = slices.Insert(r.order, index, l.ID)
}

func (r *Registry) removeImage(id string) (ImageLayer, int, bool) {
	l, ok := r.images[id]
	if !ok {
		return ImageLayer{}, -1, false
	}
	index := slices.Index(r.order, id)
	r.order = slices.Delete(r.order, index, index+1)
	delete(r.images, id)
	return *l, index, true
}

func (r *Registry) indexOf(id string) int {
	return slices.Index(r.order, id)
}

func (r *Registry) setTransform(id string, t Transform) bool {
	l, ok := r.images[id]
	if !ok {
		return false
	}
	l.Transform = t
	return true
}

func (r *Registry) appendStroke(s Stroke) {
	for _, existing := range r.drawing.Strokes {
		if existing.ID == s.ID {
			return
		}
	}
	r.drawing.Strokes = append(r.drawing.Strokes, s)
}

func (r *Registry) removeStroke(id string) bool {
	for i, s := range r.drawing.Strokes {
		if s.ID == id {
			r.drawing.Strokes = slices.Delete(r.drawing.Strokes, i, i+1)
			return true
		}
	}
	return false
}

func (r *Registry) setDraggable(draggable bool) {
	for _, l := range r.images {
		l.Draggable = draggable
	}
}

// clear removes every image and stroke. Layer visibility of the drawing layer
// is kept.
func (r *Registry) clear() {
	r.images = make(map[string]*ImageLayer)
	r.order = nil
	r.drawing.Strokes = nil
}

// Snapshot copies the registry contents. Strokes are immutable, so their
// point slices are shared.
func (r *Registry) Snapshot() Snapshot {
	snap := Snapshot{
		Images:  make([]ImageLayer, 0, len(r.order)),
		Drawing: r.drawing,
	}
	for _, l := range r.Images() {
		snap.Images = append(snap.Images, *l)
	}
	snap.Drawing.Strokes = nil
	if len(r.drawing.Strokes) > 0 {
		snap.Drawing.Strokes = slices.Clone(r.drawing.Strokes)
	}
	return snap
}

// Restore replaces the registry contents with a snapshot.
func (r *Registry) Restore(snap Snapshot) {
	r.images = make(map[string]*ImageLayer, len(snap.Images))
	r.order = make([]string, 0, len(snap.Images))
	for _, l := range snap.Images {
		r.images[l.ID] = &l
		r.order = append(r.order, l.ID)
	}
	r.drawing = snap.Drawing
	r.drawing.Strokes = slices.Clone(snap.Drawing.Strokes)
}

// hitTest returns the topmost visible image layer containing the point.
func (r *Registry) hitTest(x, y float64) string {
	for i := len(r.order) - 1; i >= 0; i-- {
		l := r.images[r.order[i]]
		if l.Visible && l.contains(x, y) {
			return l.ID
		}
	}
	return ""
}

func validBox(b Box) bool {
	return finite(b.X, b.Y, b.Width, b.Height) &&
		b.Width >= MinLayerSize && b.Height >= MinLayerSize
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// placeable reports whether every corner of t lands on a finite canvas
// position.
func placeable(t Transform) bool {
	for _, p := range transformCorners(t) {
		if !finite(p.X, p.Y) {
			return false
		}
	}
	return true
}
