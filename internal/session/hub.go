package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/partyplanner/studio/backend-go/internal/canvas"
	"github.com/partyplanner/studio/backend-go/internal/typeid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrSessionClosed  = errors.New("session closed")
	ErrInvalidRequest = errors.New("invalid request")
)

// DefaultIdleTimeout closes sessions that have had no client for this long.
const DefaultIdleTimeout = 30 * time.Minute

type Options struct {
	Editor         canvas.Options
	Bitmaps        canvas.BitmapSource
	ResizeDebounce time.Duration
	IdleTimeout    time.Duration
}

// Hub owns every live session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

func NewHub(opts Options) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create starts a new session owned by ownerID.
func (h *Hub) Create(ownerID string) *Session {
	s := newSession(typeid.NewSessionID(), ownerID, h.opts, h.remove)

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	go s.run()
	slog.Info("session created", "session", s.ID, "owner", ownerID)
	return s
}

// Get returns the session with the given id.
func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// GetOwned returns the session if userID owns it.
func (h *Hub) GetOwned(id, userID string) (*Session, error) {
	s, err := h.Get(id)
	if err != nil {
		return nil, err
	}
	if s.OwnerID != userID {
		return nil, ErrForbidden
	}
	return s, nil
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every session and waits for their goroutines to exit.
func (h *Hub) Stop() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.Close()
	}
	for _, s := range sessions {
		<-s.Done()
	}
	slog.Info("all sessions closed", "count", len(sessions))
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	slog.Info("session closed", "session", s.ID)
}
