package session

import (
	"encoding/json"

	"github.com/partyplanner/studio/backend-go/internal/canvas"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client -> server
	TypeViewportResize     = "viewport.resize"
	TypePointerDown        = "pointer.down"
	TypePointerMove        = "pointer.move"
	TypePointerUp          = "pointer.up"
	TypeToolSelect         = "tool.select"
	TypeBrushTool          = "brush.tool"
	TypeBrushSize          = "brush.size"
	TypePaletteSelect      = "palette.select"
	TypeLayerClick         = "layer.click"
	TypeBackgroundClick    = "background.click"
	TypeLayerToggle        = "layer.toggle"
	TypeImageImport        = "image.import"
	TypeImageRemove        = "image.remove"
	TypeTransformBegin     = "transform.begin"
	TypeTransformTranslate = "transform.translate"
	TypeTransformResize    = "transform.resize"
	TypeTransformRotate    = "transform.rotate"
	TypeTransformEnd       = "transform.end"
	TypeCanvasClear        = "canvas.clear"
	TypeHistoryUndo        = "history.undo"
	TypeHistoryRedo        = "history.redo"

	// Server -> client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeError   = "error"
)

type ViewportResizePayload struct {
	Width int `json:"width"`
}

type ToolSelectPayload struct {
	Mode canvas.ToolMode `json:"mode"`
}

type BrushToolPayload struct {
	Tool canvas.Tool `json:"tool"`
}

type BrushSizePayload struct {
	Size float64 `json:"size"`
}

type PaletteSelectPayload struct {
	Color string `json:"color"`
}

// LayerPayload addresses a single layer (layer.click, layer.toggle,
// image.remove).
type LayerPayload struct {
	LayerID string `json:"layerId"`
}

type TranslatePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RotatePayload struct {
	Rotation float64 `json:"rotation"`
}

type WelcomePayload struct {
	SessionID    string      `json:"sessionId"`
	ClientID     string      `json:"clientId"`
	Palette      []string    `json:"palette"`
	BrushSize    float64     `json:"brushSize"`
	Viewport     canvas.Size `json:"viewport"`
	MinLayerSize float64     `json:"minLayerSize"`
}

type FramePayload struct {
	State    canvas.State         `json:"state"`
	Layers   []canvas.LayerInfo   `json:"layers"`
	Commands []canvas.DrawCommand `json:"commands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(msgType, sessionID string, payload any) *Message {
	msg := &Message{Type: msgType, SessionID: sessionID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			msg.Payload = data
		}
	}
	return msg
}

func errorMessage(sessionID, text string) *Message {
	return newMessage(TypeError, sessionID, ErrorPayload{Message: text})
}
