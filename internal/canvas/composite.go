package canvas

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// BitmapSource resolves an image layer's asset id to its decoded bitmap.
type BitmapSource interface {
	Bitmap(assetID string) (image.Image, bool)
}

// Compositor flattens a registry into a single raster.
type Compositor struct {
	// Background fills the raster before any layer is drawn. Nil leaves it
	// transparent.
	Background color.Color
}

// Export renders every visible layer bottom to top: images in registry
// order, then the drawing layer. Hidden layers and images whose bitmap
// cannot be resolved are skipped.
func (c *Compositor) Export(r *Registry, size Size, src BitmapSource) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	if c.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(c.Background), image.Point{}, draw.Src)
	}

	for _, l := range r.Images() {
		if !l.Visible || src == nil {
			continue
		}
		bmp, ok := src.Bitmap(l.AssetID)
		if !ok {
			slog.Debug("bitmap missing for layer", "layer", l.ID, "asset", l.AssetID)
			continue
		}
		drawImageLayer(dst, l, bmp)
	}

	if r.drawing.Visible && len(r.drawing.Strokes) > 0 {
		surface := RasterizeStrokes(r.drawing.Strokes, size)
		draw.Draw(dst, dst.Bounds(), surface, image.Point{}, draw.Over)
	}
	return dst
}

// imageMatrix maps bitmap pixels to canvas space: natural size to the
// placed Width x Height, then the layer transform.
func imageMatrix(l *ImageLayer, bounds image.Rectangle) (Matrix2D, bool) {
	bw, bh := float64(bounds.Dx()), float64(bounds.Dy())
	if bw == 0 || bh == 0 {
		return Matrix2D{}, false
	}
	m := FromTransform(l.Transform).
		Multiply(Scale(l.Transform.Width/bw, l.Transform.Height/bh)).
		Multiply(Translate(-float64(bounds.Min.X), -float64(bounds.Min.Y)))
	return m, true
}

func drawImageLayer(dst *image.RGBA, l *ImageLayer, bmp image.Image) {
	m, ok := imageMatrix(l, bmp.Bounds())
	if !ok {
		return
	}
	draw.BiLinear.Transform(dst, m.Aff3(), bmp, bmp.Bounds(), draw.Over, nil)
}

// RasterizeStrokes paints strokes in order onto a fresh transparent surface.
// Pen strokes paint their color; eraser strokes clear what is already on the
// surface under them and nothing else.
func RasterizeStrokes(strokes []Stroke, size Size) *image.RGBA {
	surface := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	dc := gg.NewContextForRGBA(surface)

	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		if s.Tool == ToolEraser {
			mask := gg.NewContext(size.Width, size.Height)
			mask.SetRGB(1, 1, 1)
			tracePath(mask, s)
			eraseMasked(surface, mask.AsMask())
			continue
		}
		dc.SetHexColor(s.Color)
		tracePath(dc, s)
	}
	return surface
}

// tracePath strokes s with round caps and joins. A single sample renders as
// a dot the width of the brush.
func tracePath(dc *gg.Context, s Stroke) {
	if len(s.Points) == 1 {
		dc.DrawCircle(s.Points[0].X, s.Points[0].Y, s.Width/2)
		dc.Fill()
		return
	}
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetLineWidth(s.Width)
	dc.NewSubPath()
	for i, p := range s.Points {
		if i == 0 {
			dc.MoveTo(p.X, p.Y)
		} else {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.Stroke()
}

// eraseMasked is destination-out: every pixel keeps (1 - maskAlpha) of its
// premultiplied value.
func eraseMasked(surface *image.RGBA, mask *image.Alpha) {
	b := surface.Bounds().Intersect(mask.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint32(mask.AlphaAt(x, y).A)
			if a == 0 {
				continue
			}
			i := surface.PixOffset(x, y)
			keep := 255 - a
			for k := 0; k < 4; k++ {
				surface.Pix[i+k] = uint8(uint32(surface.Pix[i+k]) * keep / 255)
			}
		}
	}
}

// ParseHexColor parses "#rgb" or "#rrggbb" (the leading '#' is optional).
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
