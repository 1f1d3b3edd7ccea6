package session

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/partyplanner/studio/backend-go/internal/canvas"
)

type inbound struct {
	client *Client
	data   []byte
}

type request struct {
	fn    func(ed *canvas.Editor) error
	reply chan error
}

// Session is one editing session: an Editor plus the goroutine that owns it.
// Every input, whether it comes from the WebSocket client or an HTTP call,
// is applied by that goroutine to completion before the next one starts.
type Session struct {
	ID      string
	OwnerID string

	editor  *canvas.Editor
	bitmaps canvas.BitmapSource

	resizeDebounce time.Duration
	idleTimeout    time.Duration

	attach   chan *Client
	detach   chan *Client
	inbound  chan inbound
	requests chan request
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	onClose  func(*Session)

	// Owned by the loop goroutine.
	client       *Client
	pendingWidth int
	resizeTimer  *time.Timer
	resizeC      <-chan time.Time
	idleTimer    *time.Timer
	idleC        <-chan time.Time
}

func newSession(id, ownerID string, opts Options, onClose func(*Session)) *Session {
	return &Session{
		ID:             id,
		OwnerID:        ownerID,
		editor:         canvas.NewEditor(opts.Editor),
		bitmaps:        opts.Bitmaps,
		resizeDebounce: opts.ResizeDebounce,
		idleTimeout:    opts.IdleTimeout,
		attach:         make(chan *Client),
		detach:         make(chan *Client),
		inbound:        make(chan inbound, 64),
		requests:       make(chan request),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		onClose:        onClose,
	}
}

// Attach makes c the session's client. A previously attached client is told
// it was superseded and disconnected.
func (s *Session) Attach(ctx context.Context, c *Client) error {
	select {
	case s.attach <- c:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Detach releases c if it is still the attached client.
func (s *Session) Detach(c *Client) {
	select {
	case s.detach <- c:
	case <-s.done:
	}
}

func (s *Session) post(in inbound) bool {
	select {
	case s.inbound <- in:
		return true
	case <-s.done:
		return false
	}
}

// Do runs fn on the session goroutine and waits for it.
func (s *Session) Do(ctx context.Context, fn func(ed *canvas.Editor) error) error {
	req := request{fn: fn, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// The loop replies right after running fn.
	return <-req.reply
}

// Import places an asset as a new image layer and returns the layer id.
func (s *Session) Import(ctx context.Context, req canvas.ImportRequest) (string, error) {
	var id string
	err := s.Do(ctx, func(ed *canvas.Editor) error {
		var err error
		id, err = s.importImage(req)
		return err
	})
	return id, err
}

// Export flattens the session's canvas.
func (s *Session) Export(ctx context.Context) (*image.RGBA, error) {
	var img *image.RGBA
	err := s.Do(ctx, func(ed *canvas.Editor) error {
		img = ed.Export(s.bitmaps)
		return nil
	})
	return img, err
}

// Close stops the session goroutine. It does not wait for it to exit.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run() {
	defer close(s.done)

	s.startIdle()
	for {
		select {
		case c := <-s.attach:
			s.handleAttach(c)
		case c := <-s.detach:
			if c == s.client {
				close(c.send)
				s.client = nil
				s.startIdle()
				slog.Info("client detached", "session", s.ID, "client", c.ClientID)
			}
		case in := <-s.inbound:
			if in.client != s.client {
				continue
			}
			s.handle(in.data)
		case req := <-s.requests:
			req.reply <- req.fn(s.editor)
			s.sendFrame()
		case <-s.resizeC:
			s.resizeC = nil
			s.editor.ResizeViewport(s.pendingWidth)
			s.sendFrame()
		case <-s.idleC:
			slog.Info("closing idle session", "session", s.ID)
			s.shutdown()
			return
		case <-s.stop:
			s.shutdown()
			return
		}
	}
}

func (s *Session) handleAttach(c *Client) {
	if prev := s.client; prev != nil {
		prev.Send(errorMessage(s.ID, "superseded by a new connection"))
		close(prev.send)
		slog.Info("client superseded", "session", s.ID, "client", prev.ClientID)
	}
	s.client = c
	s.stopIdle()

	c.Send(newMessage(TypeWelcome, s.ID, WelcomePayload{
		SessionID:    s.ID,
		ClientID:     c.ClientID,
		Palette:      s.editor.Palette(),
		BrushSize:    s.editor.State().BrushSize,
		Viewport:     s.editor.State().Viewport,
		MinLayerSize: canvas.MinLayerSize,
	}))
	s.sendFrame()
	slog.Info("client attached", "session", s.ID, "client", c.ClientID, "user", c.UserID)
}

func (s *Session) shutdown() {
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
	}
	s.stopIdle()
	if s.client != nil {
		s.client.Send(errorMessage(s.ID, "session closed"))
		close(s.client.send)
		s.client = nil
	}
	if s.onClose != nil {
		s.onClose(s)
	}
}

func (s *Session) startIdle() {
	if s.idleTimeout <= 0 {
		return
	}
	if s.idleTimer == nil {
		s.idleTimer = time.NewTimer(s.idleTimeout)
	} else {
		s.idleTimer.Reset(s.idleTimeout)
	}
	s.idleC = s.idleTimer.C
}

func (s *Session) stopIdle() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleC = nil
}

// scheduleResize coalesces resize messages: only the latest width is applied,
// once no resize has arrived for the debounce interval.
func (s *Session) scheduleResize(width int) {
	s.pendingWidth = width
	if s.resizeDebounce <= 0 {
		s.editor.ResizeViewport(width)
		s.sendFrame()
		return
	}
	if s.resizeTimer == nil {
		s.resizeTimer = time.NewTimer(s.resizeDebounce)
	} else {
		s.resizeTimer.Reset(s.resizeDebounce)
	}
	s.resizeC = s.resizeTimer.C
}

func (s *Session) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "error", err, "session", s.ID)
		s.sendError("invalid message")
		return
	}

	if msg.Type == TypeViewportResize {
		var p ViewportResizePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendError("invalid payload for " + msg.Type)
			return
		}
		s.scheduleResize(p.Width)
		return
	}

	if err := s.dispatch(&msg); err != nil {
		slog.Debug("message rejected", "type", msg.Type, "error", err, "session", s.ID)
		s.sendError(err.Error())
	}
	s.sendFrame()
}

// dispatch applies one client message to the editor. Operations the editor
// declines (rejected geometry, empty history, unknown layers) are not errors.
func (s *Session) dispatch(msg *Message) error {
	ed := s.editor

	switch msg.Type {
	case TypePointerDown, TypePointerMove:
		var ev canvas.PointerEvent
		if err := decode(msg, &ev); err != nil {
			return err
		}
		if msg.Type == TypePointerDown {
			ed.PointerDown(ev)
		} else {
			ed.PointerMove(ev)
		}
	case TypePointerUp:
		ed.PointerUp()
	case TypeToolSelect:
		var p ToolSelectPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if !ed.SetMode(p.Mode) {
			return fmt.Errorf("unknown mode: %q", p.Mode)
		}
	case TypeBrushTool:
		var p BrushToolPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if !ed.SetBrushTool(p.Tool) {
			return fmt.Errorf("unknown tool: %q", p.Tool)
		}
	case TypeBrushSize:
		var p BrushSizePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.SetBrushSize(p.Size)
	case TypePaletteSelect:
		var p PaletteSelectPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.SelectColor(p.Color)
	case TypeLayerClick:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.ClickLayer(p.LayerID)
	case TypeBackgroundClick:
		ed.ClickBackground()
	case TypeLayerToggle:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.ToggleVisibility(p.LayerID)
	case TypeImageImport:
		var p canvas.ImportRequest
		if err := decode(msg, &p); err != nil {
			return err
		}
		if _, err := s.importImage(p); err != nil {
			return err
		}
	case TypeImageRemove:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.RemoveImage(p.LayerID)
	case TypeTransformBegin:
		ed.BeginTransform()
	case TypeTransformTranslate:
		var p TranslatePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.Translate(p.X, p.Y)
	case TypeTransformResize:
		var p canvas.Box
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.Resize(p)
	case TypeTransformRotate:
		var p RotatePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.Rotate(p.Rotation)
	case TypeTransformEnd:
		ed.EndTransform()
	case TypeCanvasClear:
		ed.ClearAll()
	case TypeHistoryUndo:
		ed.Undo()
	case TypeHistoryRedo:
		ed.Redo()
	default:
		slog.Warn("unknown message type", "type", msg.Type, "session", s.ID)
		return fmt.Errorf("unknown message type: %q", msg.Type)
	}
	return nil
}

// importImage resolves the asset and places it. A zero width or height
// takes the bitmap's natural size.
func (s *Session) importImage(req canvas.ImportRequest) (string, error) {
	if s.bitmaps == nil {
		return "", fmt.Errorf("asset %s: %w", req.AssetID, ErrNotFound)
	}
	bmp, ok := s.bitmaps.Bitmap(req.AssetID)
	if !ok {
		return "", fmt.Errorf("asset %s: %w", req.AssetID, ErrNotFound)
	}
	if req.Width == 0 && req.Height == 0 {
		req.Width = float64(bmp.Bounds().Dx())
		req.Height = float64(bmp.Bounds().Dy())
	}
	id, ok := s.editor.ImportImage(req)
	if !ok {
		return "", fmt.Errorf("%w: image size must be positive", ErrInvalidRequest)
	}
	return id, nil
}

func (s *Session) frame() FramePayload {
	return FramePayload{
		State:    s.editor.State(),
		Layers:   s.editor.Layers(),
		Commands: s.editor.Render(),
	}
}

func (s *Session) sendFrame() {
	if s.client == nil {
		return
	}
	s.client.Send(newMessage(TypeFrame, s.ID, s.frame()))
}

func (s *Session) sendError(text string) {
	if s.client == nil {
		return
	}
	s.client.Send(errorMessage(s.ID, text))
}

func decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid payload for %s", msg.Type)
	}
	return nil
}
