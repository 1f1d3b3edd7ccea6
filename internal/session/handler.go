package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/partyplanner/studio/backend-go/internal/auth"
	"github.com/partyplanner/studio/backend-go/internal/canvas"
)

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

type Handler struct {
	hub            *Hub
	auth           Authenticator
	originPatterns []string
}

func NewHandler(hub *Hub, authenticator Authenticator, originPatterns []string) *Handler {
	return &Handler{hub: hub, auth: authenticator, originPatterns: originPatterns}
}

type createResponse struct {
	ID string `json:"id"`
}

type importResponse struct {
	LayerID string `json:"layerId"`
}

// Create handles POST /api/sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	s := h.hub.Create(userID)
	writeJSON(w, http.StatusCreated, createResponse{ID: s.ID})
}

// ImportImage handles POST /api/sessions/{sessionId}/images.
func (h *Handler) ImportImage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	s, err := h.hub.GetOwned(mux.Vars(r)["sessionId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req canvas.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.AssetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assetId is required"})
		return
	}

	layerID, err := s.Import(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{LayerID: layerID})
}

// ServeWS handles GET /ws/session/{sessionId}?token=...
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.Authenticate(r)
	if err != nil {
		auth.WriteError(w, err)
		return
	}

	s, err := h.hub.GetOwned(mux.Vars(r)["sessionId"], userID)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrForbidden):
		http.Error(w, "not the session owner", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(conn, userID, uuid.New().String())

	ctx := r.Context()
	if err := s.Attach(ctx, client); err != nil {
		conn.Close(websocket.StatusGoingAway, "session closed")
		return
	}
	go client.WritePump(ctx)
	client.ReadPump(ctx, s)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "session closed"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
