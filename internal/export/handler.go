package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/partyplanner/studio/backend-go/internal/auth"
	"github.com/partyplanner/studio/backend-go/internal/session"
)

// Sessions finds a live session owned by a user.
type Sessions interface {
	GetOwned(id, userID string) (*session.Session, error)
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// ExportPNG handles GET /api/sessions/{sessionId}/export.png: it flattens
// the session's visible layers and streams them as a PNG download.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	s, err := h.sessions.GetOwned(sessionID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	img, err := s.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := EncodePNG(img)
	if err != nil {
		slog.Error("encode export", "error", err, "session", sessionID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("export finished", "session", sessionID, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "bytes", len(data))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, sessionID))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// EncodePNG encodes a flattened canvas.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, session.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, session.ErrSessionClosed):
		http.Error(w, "session closed", http.StatusGone)
	default:
		slog.Error("export failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
