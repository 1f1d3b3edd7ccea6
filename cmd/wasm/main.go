//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"syscall/js"

	"github.com/partyplanner/studio/backend-go/internal/canvas"
)

var (
	ed      *canvas.Editor
	bitmaps = bitmapStore{}
)

// bitmapStore holds bitmaps the page has decoded and handed over.
type bitmapStore map[string]image.Image

func (b bitmapStore) Bitmap(assetID string) (image.Image, bool) {
	img, ok := b[assetID]
	return img, ok
}

func main() {
	ed = canvas.NewEditor(canvas.DefaultOptions())

	api := js.Global().Get("Object").New()

	// --- Commands (page → editor) ---
	api.Set("resize", js.FuncOf(resize))
	api.Set("pointerDown", js.FuncOf(pointer(ed.PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointer(ed.PointerMove)))
	api.Set("pointerUp", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.PointerUp())
	}))
	api.Set("setMode", js.FuncOf(setMode))
	api.Set("selectColor", js.FuncOf(selectColor))
	api.Set("setBrushTool", js.FuncOf(setBrushTool))
	api.Set("setBrushSize", js.FuncOf(setBrushSize))
	api.Set("clickLayer", js.FuncOf(clickLayer))
	api.Set("clickBackground", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.ClickBackground())
	}))
	api.Set("toggleVisibility", js.FuncOf(toggleVisibility))
	api.Set("registerBitmap", js.FuncOf(registerBitmap))
	api.Set("importImage", js.FuncOf(importImage))
	api.Set("removeImage", js.FuncOf(removeImage))
	api.Set("translate", js.FuncOf(translate))
	api.Set("resizeSelection", js.FuncOf(resizeSelection))
	api.Set("rotate", js.FuncOf(rotate))
	api.Set("endTransform", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.EndTransform())
	}))
	api.Set("clearAll", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.ClearAll())
	}))
	api.Set("undo", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.Undo())
	}))
	api.Set("redo", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return js.ValueOf(ed.Redo())
	}))

	// --- Queries (page ← editor) ---
	api.Set("render", js.FuncOf(render))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getLayers", js.FuncOf(getLayers))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("exportPNG", js.FuncOf(exportPNG))

	js.Global().Set("studioCanvas", api)
	js.Global().Set("studioWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func toJSON(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	return toJSON(ed.ResizeViewport(args[0].Int()))
}

// pointer adapts a pointer handler taking (clientX, clientY, rectJSON).
func pointer(fn func(canvas.PointerEvent) bool) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 3 {
			return js.ValueOf(false)
		}
		var bounds canvas.Rect
		if err := json.Unmarshal([]byte(args[2].String()), &bounds); err != nil {
			return js.ValueOf(false)
		}
		return js.ValueOf(fn(canvas.PointerEvent{
			ClientX: args[0].Float(),
			ClientY: args[1].Float(),
			Bounds:  bounds,
		}))
	}
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.SetMode(canvas.ToolMode(args[0].String())))
}

func selectColor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.SelectColor(args[0].String()))
}

func setBrushTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.SetBrushTool(canvas.Tool(args[0].String())))
}

func setBrushSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.SetBrushSize(args[0].Float()))
}

func clickLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.ClickLayer(args[0].String()))
}

func toggleVisibility(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.ToggleVisibility(args[0].String()))
}

// registerBitmap(assetId, width, height, rgba Uint8ClampedArray) stores a
// decoded bitmap for export.
func registerBitmap(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return errorValue("expected assetId, width, height, pixels")
	}
	w, h := args[1].Int(), args[2].Int()
	if w <= 0 || h <= 0 || args[3].Length() != w*h*4 {
		return errorValue("pixel buffer does not match size")
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	js.CopyBytesToGo(img.Pix, args[3])
	bitmaps[args[0].String()] = img
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func importImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing import JSON")
	}
	var req canvas.ImportRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return errorValue(err.Error())
	}
	if bmp, ok := bitmaps.Bitmap(req.AssetID); ok && req.Width == 0 && req.Height == 0 {
		req.Width = float64(bmp.Bounds().Dx())
		req.Height = float64(bmp.Bounds().Dy())
	}
	id, ok := ed.ImportImage(req)
	if !ok {
		return errorValue("import rejected")
	}
	return js.ValueOf(map[string]interface{}{"layerId": id})
}

func removeImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.RemoveImage(args[0].String()))
}

func translate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.Translate(args[0].Float(), args[1].Float()))
}

func resizeSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.Resize(canvas.Box{
		X:      args[0].Float(),
		Y:      args[1].Float(),
		Width:  args[2].Float(),
		Height: args[3].Float(),
	}))
}

func rotate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.Rotate(args[0].Float()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	commands, err := canvas.DrawCommandsToJSON(ed.Render())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(commands)
}

func getState(this js.Value, args []js.Value) interface{} {
	return toJSON(ed.State())
}

func getLayers(this js.Value, args []js.Value) interface{} {
	return toJSON(ed.Layers())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(ed.HitTest(args[0].Float(), args[1].Float()))
}

// exportPNG returns the flattened canvas as a Uint8Array of PNG bytes.
func exportPNG(this js.Value, args []js.Value) interface{} {
	var buf bytes.Buffer
	if err := png.Encode(&buf, ed.Export(bitmaps)); err != nil {
		return errorValue(err.Error())
	}
	out := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(out, buf.Bytes())
	return out
}
