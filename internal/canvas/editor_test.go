package canvas

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = Rect{Width: 200, Height: 100}

// at builds a pointer event on a 200x100 canvas element whose client rect
// matches the canvas size, so client and canvas coordinates coincide.
func at(x, y float64) PointerEvent {
	return PointerEvent{ClientX: x, ClientY: y, Bounds: testBounds}
}

func newTestEditor() *Editor {
	opts := DefaultOptions()
	opts.Width = 200
	opts.Height = 100
	return NewEditor(opts)
}

func importAt(t *testing.T, e *Editor, asset string, x, y, w, h float64) string {
	t.Helper()
	id, ok := e.ImportImage(ImportRequest{AssetID: asset, X: x, Y: y, Width: w, Height: h})
	require.True(t, ok)
	return id
}

func drawStroke(e *Editor, pts ...Point) {
	e.PointerDown(at(pts[0].X, pts[0].Y))
	for _, p := range pts {
		e.PointerMove(at(p.X, p.Y))
	}
	e.PointerUp()
}

func layerBox(t *testing.T, e *Editor, id string) Box {
	t.Helper()
	l, ok := e.Registry().Image(id)
	require.True(t, ok)
	return l.Transform.Box()
}

func TestNewEditorDefaults(t *testing.T) {
	e := newTestEditor()
	s := e.State()

	assert.Equal(t, ModeMove, s.Mode)
	assert.Empty(t, s.Selection)
	assert.Equal(t, DefaultPalette[0], s.Color)
	assert.Equal(t, ToolPen, s.Tool)
	assert.Equal(t, 5.0, s.BrushSize)
	assert.False(t, s.CanUndo)
	assert.Equal(t, Size{Width: 200, Height: 100}, s.Viewport)

	layers := e.Layers()
	require.Len(t, layers, 1)
	assert.Equal(t, LayerDrawing, layers[0].Kind)
}

// --- Tool mode ---

func TestEnteringDrawAlwaysClearsSelection(t *testing.T) {
	entries := []struct {
		name  string
		enter func(e *Editor)
	}{
		{"tool select", func(e *Editor) { e.SetMode(ModeDraw) }},
		{"palette select", func(e *Editor) { e.SelectColor("#ff0000") }},
	}
	for _, entry := range entries {
		t.Run(entry.name, func(t *testing.T) {
			e := newTestEditor()
			a := importAt(t, e, "a", 0, 0, 100, 100)
			require.True(t, e.ClickLayer(a))
			require.True(t, e.Translate(30, 30))

			entry.enter(e)

			assert.Equal(t, ModeDraw, e.Mode())
			assert.Empty(t, e.Selection())
			l, _ := e.Registry().Image(a)
			assert.False(t, l.Draggable)
			// The open transform was committed, not dropped.
			assert.Equal(t, 30.0, l.Transform.X)
			assert.True(t, e.State().CanUndo)

			// Re-entering Draw from Draw keeps the invariant.
			entry.enter(e)
			assert.Empty(t, e.Selection())
		})
	}
}

func TestEnteringMoveKeepsSelection(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.SetMode(ModeMove))

	assert.Equal(t, ModeMove, e.Mode())
	assert.Equal(t, a, e.Selection())
	l, _ := e.Registry().Image(a)
	assert.True(t, l.Draggable)
}

func TestSelectColorSetsColorAndEntersDraw(t *testing.T) {
	e := newTestEditor()
	assert.True(t, e.SelectColor("#ff0000"))
	assert.Equal(t, "#ff0000", e.State().Color)
	assert.Equal(t, ModeDraw, e.Mode())

	assert.False(t, e.SelectColor(""))
	assert.Equal(t, "#ff0000", e.State().Color)
}

func TestSetModeRejectsUnknown(t *testing.T) {
	e := newTestEditor()
	assert.False(t, e.SetMode("lasso"))
	assert.Equal(t, ModeMove, e.Mode())
}

func TestEnteringMoveCommitsOpenStroke(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)
	e.PointerDown(at(10, 10))
	e.PointerMove(at(11, 11))
	e.PointerMove(at(12, 12))
	require.True(t, e.State().Drawing)

	e.SetMode(ModeMove)

	assert.False(t, e.State().Drawing)
	require.Len(t, e.Registry().Drawing().Strokes, 1)
	assert.Len(t, e.Registry().Drawing().Strokes[0].Points, 2)
}

func TestImportedImagesTakeDraggableFromMode(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 50, 50)
	e.SetMode(ModeDraw)
	b := importAt(t, e, "b", 0, 0, 50, 50)

	la, _ := e.Registry().Image(a)
	lb, _ := e.Registry().Image(b)
	assert.False(t, la.Draggable)
	assert.False(t, lb.Draggable)

	e.SetMode(ModeMove)
	assert.True(t, la.Draggable)
	assert.True(t, lb.Draggable)
}

// --- Stroke capture ---

func TestDegenerateStrokeIsDiscarded(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)

	e.PointerDown(at(10, 10))
	assert.False(t, e.PointerUp())

	assert.Empty(t, e.Registry().Drawing().Strokes)
	assert.False(t, e.State().CanUndo)
}

func TestStrokeReleasedOutsideCanvasCommits(t *testing.T) {
	e := newTestEditor()
	e.SelectColor("#ff0000")

	e.PointerDown(at(10, 10))
	for i := 1; i <= 5; i++ {
		e.PointerMove(at(float64(10*i), 20))
	}
	// Moves outside the element are not delivered.
	assert.False(t, e.PointerMove(at(500, 500)))
	// Release arrives from the window, outside the canvas.
	assert.True(t, e.PointerUp())
	assert.False(t, e.PointerUp(), "second release is a no-op")

	strokes := e.Registry().Drawing().Strokes
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 5)
	assert.Equal(t, "#ff0000", strokes[0].Color)
	assert.Equal(t, ToolPen, strokes[0].Tool)
	assert.True(t, e.State().CanUndo)
}

func TestPointerDownOutsideCanvasIsIgnored(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)
	assert.False(t, e.PointerDown(at(-1, 10)))
	assert.False(t, e.State().Drawing)
}

func TestPointerDownWhileStrokeOpenCommitsFirst(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)

	e.PointerDown(at(10, 10))
	e.PointerMove(at(11, 11))
	e.PointerDown(at(50, 50))
	e.PointerMove(at(51, 51))
	e.PointerUp()

	assert.Len(t, e.Registry().Drawing().Strokes, 2)
}

func TestBrushSettingsApplyToNextStroke(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)
	require.True(t, e.SetBrushTool(ToolEraser))
	require.True(t, e.SetBrushSize(12))
	assert.False(t, e.SetBrushTool("spray"))
	assert.False(t, e.SetBrushSize(0))
	assert.Equal(t, ModeDraw, e.Mode(), "brush tool does not change mode")

	drawStroke(e, Point{X: 10, Y: 10}, Point{X: 20, Y: 20})

	s := e.Registry().Drawing().Strokes[0]
	assert.Equal(t, ToolEraser, s.Tool)
	assert.Equal(t, 12.0, s.Width)
}

func TestPointerInMoveModeDoesNotDraw(t *testing.T) {
	e := newTestEditor()
	drawStroke(e, Point{X: 10, Y: 10}, Point{X: 20, Y: 20})
	assert.Empty(t, e.Registry().Drawing().Strokes)
}

// --- Selection and transform ---

func TestDragUndoRedo(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)

	require.True(t, e.PointerDown(at(10, 10)))
	assert.Equal(t, a, e.Selection())
	require.True(t, e.PointerMove(at(60, 60)))
	require.True(t, e.PointerUp())
	assert.Equal(t, Box{X: 50, Y: 50, Width: 100, Height: 100}, layerBox(t, e, a))

	require.True(t, e.Undo())
	assert.Equal(t, Box{X: 0, Y: 0, Width: 100, Height: 100}, layerBox(t, e, a))

	require.True(t, e.Redo())
	assert.Equal(t, Box{X: 50, Y: 50, Width: 100, Height: 100}, layerBox(t, e, a))
}

func TestPointerDownOnBackgroundDeselects(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 50, 50)
	require.True(t, e.ClickLayer(a))

	e.PointerDown(at(150, 80))
	assert.Empty(t, e.Selection())
}

func TestResizeBelowFloorIsRejected(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	assert.False(t, e.Resize(Box{X: 0, Y: 0, Width: 10, Height: 10}))
	assert.False(t, e.EndTransform())

	assert.Equal(t, Box{X: 0, Y: 0, Width: 100, Height: 100}, layerBox(t, e, a))
	undo, _ := e.history.Len()
	assert.Equal(t, 1, undo, "only the import is recorded")
}

func TestResizeNeverGoesBelowFloor(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		e.Resize(Box{
			X:      rng.Float64() * 100,
			Y:      rng.Float64() * 100,
			Width:  rng.Float64()*200 - 50,
			Height: rng.Float64()*200 - 50,
		})
		b := layerBox(t, e, a)
		require.GreaterOrEqual(t, b.Width, MinLayerSize)
		require.GreaterOrEqual(t, b.Height, MinLayerSize)
	}
}

func TestResizeSetsScale(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.Resize(Box{X: 10, Y: 5, Width: 50, Height: 200}))
	l, _ := e.Registry().Image(a)
	assert.Equal(t, 0.5, l.Transform.ScaleX)
	assert.Equal(t, 2.0, l.Transform.ScaleY)
	assert.Equal(t, 100.0, l.Transform.Width, "base size is kept")

	require.True(t, e.EndTransform())
	require.True(t, e.Undo())
	assert.Equal(t, Box{Width: 100, Height: 100}, layerBox(t, e, a))
}

func TestRotateRecordsTransform(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.BeginTransform())
	require.True(t, e.Rotate(15))
	require.True(t, e.Rotate(45))
	require.True(t, e.EndTransform())

	undo, _ := e.history.Len()
	assert.Equal(t, 2, undo, "one entry per release")
	e.Undo()
	l, _ := e.Registry().Image(a)
	assert.Equal(t, 0.0, l.Transform.Rotation)
}

func TestUnchangedTransformRecordsNothing(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)

	e.PointerDown(at(10, 10))
	e.PointerUp()
	require.True(t, e.ClickLayer(a))
	e.Translate(0, 0)
	e.EndTransform()

	undo, _ := e.history.Len()
	assert.Equal(t, 1, undo)
}

func TestNonFiniteTransformsAreRejected(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name  string
		apply func(e *Editor) bool
	}{
		{"translate NaN", func(e *Editor) bool { return e.Translate(nan, 0) }},
		{"translate Inf", func(e *Editor) bool { return e.Translate(0, -inf) }},
		{"rotate NaN", func(e *Editor) bool { return e.Rotate(nan) }},
		{"rotate Inf", func(e *Editor) bool { return e.Rotate(inf) }},
		{"resize NaN position", func(e *Editor) bool { return e.Resize(Box{X: nan, Y: 0, Width: 50, Height: 50}) }},
		{"resize Inf size", func(e *Editor) bool { return e.Resize(Box{Width: inf, Height: 50}) }},
		{"resize overflowing corners", func(e *Editor) bool { return e.Resize(Box{X: 1e308, Width: 1e308, Height: 100}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			a := importAt(t, e, "a", 0, 0, 100, 100)
			require.True(t, e.ClickLayer(a))

			assert.False(t, tt.apply(e))
			assert.False(t, e.EndTransform())

			assert.Equal(t, Box{Width: 100, Height: 100}, layerBox(t, e, a))
			_, err := json.Marshal(e.Render())
			assert.NoError(t, err)
		})
	}
}

func TestNonFiniteInputsAreIgnored(t *testing.T) {
	e := newTestEditor()

	_, ok := e.ImportImage(ImportRequest{AssetID: "a", X: math.NaN(), Width: 10, Height: 10})
	assert.False(t, ok)
	_, ok = e.ImportImage(ImportRequest{AssetID: "a", Width: math.Inf(1), Height: 10})
	assert.False(t, ok)
	assert.False(t, e.SetBrushSize(math.Inf(1)))
	assert.False(t, e.SetBrushSize(math.NaN()))
	assert.Equal(t, 5.0, e.State().BrushSize)
}

func TestTransformRequiresSelection(t *testing.T) {
	e := newTestEditor()
	importAt(t, e, "a", 0, 0, 100, 100)

	assert.False(t, e.BeginTransform())
	assert.False(t, e.Translate(5, 5))
	assert.False(t, e.Resize(Box{Width: 50, Height: 50}))
	assert.False(t, e.Rotate(10))
	assert.False(t, e.EndTransform())
}

func TestClickLayerOnlyInMoveMode(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	e.SetMode(ModeDraw)

	assert.False(t, e.ClickLayer(a))
	assert.False(t, e.ClickBackground())
	assert.Empty(t, e.Selection())
}

func TestClickUnknownOrHiddenLayerDeselects(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	b := importAt(t, e, "b", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	assert.False(t, e.ClickLayer("layer_missing"))
	assert.Empty(t, e.Selection())

	require.True(t, e.ToggleVisibility(b))
	require.True(t, e.ClickLayer(a))
	assert.False(t, e.ClickLayer(b))
	assert.Empty(t, e.Selection())
}

func TestHidingSelectedLayerDeselects(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.ToggleVisibility(a))
	assert.Empty(t, e.Selection())

	// Undoing the hide does not restore the selection, but the layer is
	// visible and selectable again.
	require.True(t, e.Undo())
	assert.True(t, e.ClickLayer(a))
}

func TestToggleUnknownLayerIsNoOp(t *testing.T) {
	e := newTestEditor()
	assert.False(t, e.ToggleVisibility("nope"))
	assert.False(t, e.State().CanUndo)
}

func TestRemoveImage(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	b := importAt(t, e, "b", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.RemoveImage(a))
	assert.Empty(t, e.Selection())
	assert.False(t, e.RemoveImage(a))

	require.True(t, e.Undo())
	images := e.Registry().Images()
	require.Len(t, images, 2)
	assert.Equal(t, a, images[0].ID, "restored at its old position")
	assert.Equal(t, b, images[1].ID)
}

func TestUndoImportDropsSelection(t *testing.T) {
	e := newTestEditor()
	a := importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.ClickLayer(a))

	require.True(t, e.Undo())
	assert.Empty(t, e.Selection())
	for _, cmd := range e.Render() {
		assert.NotEqual(t, OpTransformer, cmd.Op)
	}
}

func TestImportRejectsInvalidRequests(t *testing.T) {
	e := newTestEditor()
	_, ok := e.ImportImage(ImportRequest{AssetID: "", Width: 10, Height: 10})
	assert.False(t, ok)
	_, ok = e.ImportImage(ImportRequest{AssetID: "a", Width: 0, Height: 10})
	assert.False(t, ok)
	assert.False(t, e.State().CanUndo)
}

func TestLayersPanelOrderAndNames(t *testing.T) {
	e := newTestEditor()
	importAt(t, e, "a", 0, 0, 10, 10)
	importAt(t, e, "b", 0, 0, 10, 10)

	layers := e.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, "Image 1", layers[0].Name)
	assert.Equal(t, "Image 2", layers[1].Name)
	assert.Equal(t, LayerDrawing, layers[2].Kind)
}

// --- Clear and history ---

func TestClearAllIsOneUndo(t *testing.T) {
	e := newTestEditor()
	importAt(t, e, "a", 0, 0, 100, 100)
	importAt(t, e, "b", 10, 10, 100, 100)
	e.SetMode(ModeDraw)
	drawStroke(e, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	before := e.Snapshot()

	require.True(t, e.ClearAll())
	assert.Empty(t, e.Registry().Images())
	assert.Empty(t, e.Registry().Drawing().Strokes)

	require.True(t, e.Undo())
	assert.Equal(t, before, e.Snapshot())
}

func TestClearAllOnEmptyCanvasRecordsNothing(t *testing.T) {
	e := newTestEditor()
	assert.False(t, e.ClearAll())
	assert.False(t, e.State().CanUndo)
}

func TestUndoWithEmptyHistory(t *testing.T) {
	e := newTestEditor()
	before := e.Snapshot()

	assert.NotPanics(t, func() {
		assert.False(t, e.Undo())
		assert.False(t, e.Redo())
	})
	assert.Equal(t, before, e.Snapshot())
}

func TestNewEditClearsRedo(t *testing.T) {
	e := newTestEditor()
	importAt(t, e, "a", 0, 0, 100, 100)
	require.True(t, e.Undo())
	require.True(t, e.State().CanRedo)

	importAt(t, e, "b", 0, 0, 100, 100)
	assert.False(t, e.State().CanRedo)
	assert.False(t, e.Redo())
}

func TestUndoCommitsOpenStrokeFirst(t *testing.T) {
	e := newTestEditor()
	e.SetMode(ModeDraw)
	drawStroke(e, Point{X: 1, Y: 1})
	e.PointerDown(at(5, 5))
	e.PointerMove(at(6, 6))

	require.True(t, e.Undo())
	// The open stroke was committed and then undone; the first one remains.
	require.Len(t, e.Registry().Drawing().Strokes, 1)
	assert.Equal(t, 1.0, e.Registry().Drawing().Strokes[0].Points[0].X)
}

func TestUndoRedoInverseLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		e := newTestEditor()
		initial := e.Snapshot()

		for i := 0; i < 40; i++ {
			randomOp(t, e, rng)
		}
		e.PointerUp()
		e.EndTransform()
		final := e.Snapshot()

		n, _ := e.history.Len()
		for i := 0; i < n; i++ {
			require.True(t, e.Undo(), "round %d undo %d", round, i)
		}
		require.Equal(t, initial, e.Snapshot(), "round %d", round)
		require.False(t, e.Undo())

		for i := 0; i < n; i++ {
			require.True(t, e.Redo(), "round %d redo %d", round, i)
		}
		require.Equal(t, final, e.Snapshot(), "round %d", round)
	}
}

func randomOp(t *testing.T, e *Editor, rng *rand.Rand) {
	t.Helper()
	randomImage := func() (*ImageLayer, bool) {
		images := e.Registry().Images()
		if len(images) == 0 {
			return nil, false
		}
		return images[rng.Intn(len(images))], true
	}
	pt := func() Point {
		return Point{X: rng.Float64() * 199, Y: rng.Float64() * 99}
	}

	switch rng.Intn(10) {
	case 0, 1:
		e.ImportImage(ImportRequest{
			AssetID: "asset",
			X:       rng.Float64() * 150,
			Y:       rng.Float64() * 50,
			Width:   20 + rng.Float64()*80,
			Height:  20 + rng.Float64()*80,
		})
	case 2, 3:
		e.SelectColor(DefaultPalette[rng.Intn(len(DefaultPalette))])
		if rng.Intn(3) == 0 {
			e.SetBrushTool(ToolEraser)
		} else {
			e.SetBrushTool(ToolPen)
		}
		pts := []Point{pt()}
		for k := rng.Intn(4); k > 0; k-- {
			pts = append(pts, pt())
		}
		drawStroke(e, pts...)
	case 4:
		layers := e.Layers()
		e.ToggleVisibility(layers[rng.Intn(len(layers))].ID)
	case 5:
		e.SetMode(ModeMove)
		if l, ok := randomImage(); ok && e.ClickLayer(l.ID) {
			e.Translate(rng.Float64()*150, rng.Float64()*50)
			e.EndTransform()
		}
	case 6:
		e.SetMode(ModeMove)
		if l, ok := randomImage(); ok && e.ClickLayer(l.ID) {
			e.Resize(Box{X: rng.Float64() * 100, Y: rng.Float64() * 50, Width: rng.Float64() * 120, Height: rng.Float64() * 120})
			e.Rotate(rng.Float64() * 360)
			e.EndTransform()
		}
	case 7:
		if l, ok := randomImage(); ok {
			e.RemoveImage(l.ID)
		}
	case 8:
		if rng.Intn(4) == 0 {
			e.ClearAll()
		}
	case 9:
		e.Undo()
	}
}

func TestHistoryLimitOption(t *testing.T) {
	opts := DefaultOptions()
	opts.HistoryLimit = 2
	e := NewEditor(opts)
	for i := 0; i < 4; i++ {
		_, ok := e.ImportImage(ImportRequest{AssetID: "a", Width: 30, Height: 30})
		require.True(t, ok)
	}

	assert.True(t, e.Undo())
	assert.True(t, e.Undo())
	assert.False(t, e.Undo())
	assert.Len(t, e.Registry().Images(), 2)
}

func TestResizeViewport(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxWidth = 1024
	e := NewEditor(opts)
	assert.Equal(t, Size{Width: 1024, Height: 600}, e.ResizeViewport(2000))
	assert.Equal(t, Size{Width: 1024, Height: 600}, e.State().Viewport)
}
