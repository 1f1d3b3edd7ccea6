package design

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/partyplanner/studio/backend-go/internal/auth"
	"github.com/partyplanner/studio/backend-go/internal/export"
	"github.com/partyplanner/studio/backend-go/internal/session"
)

type Handler struct {
	service  *Service
	sessions export.Sessions
}

func NewHandler(service *Service, sessions export.Sessions) *Handler {
	return &Handler{service: service, sessions: sessions}
}

type saveRequest struct {
	Name string `json:"name"`
}

// Save handles POST /api/sessions/{sessionId}/designs.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	s, err := h.sessions.GetOwned(sessionID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	img, err := s.Export(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	d, err := h.service.Save(r.Context(), userID, sessionID, req.Name, img)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// List handles GET /api/designs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	designs, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list designs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

// Image handles GET /api/designs/{designId}/image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	data, err := h.service.Image(r.Context(), mux.Vars(r)["designId"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden), errors.Is(err, session.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrNoName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrSessionClosed):
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
