package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var (
	ErrMissingToken    = errors.New("missing token")
	ErrMalformedHeader = errors.New("invalid authorization format")
)

type contextKey string

const UserIDKey contextKey = "userID"

// Authenticate resolves the user behind a request. The token comes from an
// "Authorization: Bearer" header or, when there is no header, from the
// token query parameter WebSocket clients connect with.
func (s *Service) Authenticate(r *http.Request) (string, error) {
	token, err := requestToken(r)
	if err != nil {
		return "", err
	}
	return s.ValidateToken(token)
}

func requestToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || token == "" {
			return "", ErrMalformedHeader
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.Authenticate(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WriteError answers a failed Authenticate call.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
	case errors.Is(err, ErrMalformedHeader):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
	case errors.Is(err, ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	default:
		slog.Error("authenticate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
