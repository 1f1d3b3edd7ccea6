package canvas

import "encoding/json"

// Render list ops, in the order a client renderer executes them.
const (
	OpImage       = "image"
	OpLayer       = "layer"
	OpStroke      = "stroke"
	OpEndLayer    = "endLayer"
	OpTransformer = "transformer"
)

// DrawCommand is a single drawing operation for a Canvas2D client. A frame
// is a list of these in painter's order (back to front).
type DrawCommand struct {
	Op        string    `json:"op"`
	LayerID   string    `json:"layerId,omitempty"`
	Transform []float64 `json:"transform,omitempty"` // [a, b, c, d, e, f]

	// image
	AssetID string  `json:"assetId,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`

	// stroke
	StrokeID  string  `json:"strokeId,omitempty"`
	Points    []Point `json:"points,omitempty"`
	Color     string  `json:"color,omitempty"`
	LineWidth float64 `json:"lineWidth,omitempty"`
	Composite string  `json:"composite,omitempty"`

	// transformer
	Corners []Point `json:"corners,omitempty"`
	MinSize float64 `json:"minSize,omitempty"`
}

// Render compiles the current frame. Hidden layers produce no commands.
// The drawing layer is wrapped in layer/endLayer so that eraser strokes only
// affect its own offscreen surface. The in-progress stroke renders last
// inside it.
func (e *Editor) Render() []DrawCommand {
	var commands []DrawCommand

	for _, l := range e.layers.Images() {
		if !l.Visible {
			continue
		}
		commands = append(commands, DrawCommand{
			Op:        OpImage,
			LayerID:   l.ID,
			Transform: FromTransform(l.Transform).ToSlice(),
			AssetID:   l.AssetID,
			Width:     l.Transform.Width,
			Height:    l.Transform.Height,
		})
	}

	if d := e.layers.Drawing(); d.Visible {
		commands = append(commands, DrawCommand{Op: OpLayer, LayerID: d.ID})
		for _, s := range d.Strokes {
			commands = append(commands, strokeCommand(s))
		}
		if s, ok := e.capture.preview(); ok {
			commands = append(commands, strokeCommand(s))
		}
		commands = append(commands, DrawCommand{Op: OpEndLayer, LayerID: d.ID})
	}

	if l, ok := e.selected(); ok && l.Visible {
		commands = append(commands, DrawCommand{
			Op:      OpTransformer,
			LayerID: l.ID,
			Corners: l.corners(),
			MinSize: MinLayerSize,
		})
	}
	return commands
}

func strokeCommand(s Stroke) DrawCommand {
	return DrawCommand{
		Op:        OpStroke,
		StrokeID:  s.ID,
		Points:    s.Points,
		Color:     s.Color,
		LineWidth: s.Width,
		Composite: s.Tool.Composite(),
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
