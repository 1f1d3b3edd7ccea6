package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoint(t *testing.T, wantX, wantY, x, y float64) {
	t.Helper()
	assert.InDelta(t, wantX, x, 1e-9)
	assert.InDelta(t, wantY, y, 1e-9)
}

func TestMultiplyAppliesRightOperandFirst(t *testing.T) {
	m := Translate(10, 0).Multiply(Scale(2, 2))
	x, y := m.TransformPoint(1, 1)
	assertPoint(t, 12, 2, x, y)
}

func TestFromTransformRotatesAboutTopLeft(t *testing.T) {
	m := FromTransform(Transform{X: 100, Y: 50, ScaleX: 1, ScaleY: 1, Rotation: 90})

	x, y := m.TransformPoint(0, 0)
	assertPoint(t, 100, 50, x, y)

	x, y = m.TransformPoint(10, 0)
	assertPoint(t, 100, 60, x, y)
}

func TestFromTransformScales(t *testing.T) {
	m := FromTransform(Transform{X: 5, Y: 5, ScaleX: 2, ScaleY: 3})
	x, y := m.TransformPoint(10, 10)
	assertPoint(t, 25, 35, x, y)
}

func TestInvert(t *testing.T) {
	m := FromTransform(Transform{X: 3, Y: -7, ScaleX: 1.5, ScaleY: 0.5, Rotation: 33})
	inv, ok := m.Invert()
	require.True(t, ok)

	x, y := m.TransformPoint(12, 4)
	bx, by := inv.TransformPoint(x, y)
	assertPoint(t, 12, 4, bx, by)

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestAff3Layout(t *testing.T) {
	m := Matrix2D{1, 2, 3, 4, 5, 6}
	a := m.Aff3()
	assert.Equal(t, [6]float64{1, 3, 5, 2, 4, 6}, [6]float64(a))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.ToSlice())
}

func TestRotateUsesRadians(t *testing.T) {
	x, y := Rotate(math.Pi/2).TransformPoint(1, 0)
	assertPoint(t, 0, 1, x, y)
}
