package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/partyplanner/studio/backend-go/internal/asset"
	"github.com/partyplanner/studio/backend-go/internal/auth"
	"github.com/partyplanner/studio/backend-go/internal/config"
	"github.com/partyplanner/studio/backend-go/internal/db"
	"github.com/partyplanner/studio/backend-go/internal/design"
	"github.com/partyplanner/studio/backend-go/internal/export"
	mw "github.com/partyplanner/studio/backend-go/internal/middleware"
	"github.com/partyplanner/studio/backend-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	assets, err := asset.NewStore(cfg.AssetDir)
	if err != nil {
		slog.Error("open asset store", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	hub := session.NewHub(session.Options{
		Editor:         cfg.EditorOptions(),
		Bitmaps:        assets,
		ResizeDebounce: cfg.ResizeDebounce,
		IdleTimeout:    session.DefaultIdleTimeout,
	})
	sessionHandler := session.NewHandler(hub, authService, originPatterns(cfg.Origins()))

	assetHandler := asset.NewHandler(assets)
	exportHandler := export.NewHandler(hub)
	designHandler := design.NewHandler(design.NewService(design.NewPgStore(pool)), hub)

	r := newRouter(routes{
		auth:     authService,
		authAPI:  authHandler,
		sessions: sessionHandler,
		assets:   assetHandler,
		export:   exportHandler,
		designs:  designHandler,
	}, cfg.Origins())

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type routes struct {
	auth     *auth.Service
	authAPI  *auth.Handler
	sessions *session.Handler
	assets   *asset.Handler
	export   *export.Handler
	designs  *design.Handler
}

func newRouter(h routes, origins []string) *mux.Router {
	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Preflight for every path; CORS answers it before the handler runs.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/assets/upload", h.assets.Upload).Methods("POST")
	r.PathPrefix("/assets/").Handler(h.assets.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.auth.AuthMiddleware)

	api.HandleFunc("/auth/refresh", h.authAPI.Refresh).Methods("POST")
	api.HandleFunc("/sessions", h.sessions.Create).Methods("POST")
	api.HandleFunc("/sessions/{sessionId}/images", h.sessions.ImportImage).Methods("POST")
	api.HandleFunc("/sessions/{sessionId}/export.png", h.export.ExportPNG).Methods("GET")
	api.HandleFunc("/sessions/{sessionId}/designs", h.designs.Save).Methods("POST")
	api.HandleFunc("/designs", h.designs.List).Methods("GET")
	api.HandleFunc("/designs/{designId}/image", h.designs.Image).Methods("GET")

	// WebSocket endpoint (token in query string)
	r.HandleFunc("/ws/session/{sessionId}", h.sessions.ServeWS)

	return r
}

// originPatterns strips the scheme from allowed origins; the WebSocket
// origin check matches host patterns only.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		patterns = append(patterns, o)
	}
	return patterns
}
