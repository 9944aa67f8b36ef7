package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitea.kood.tech/petrkubec/staff-directory/backend/config"
	"gitea.kood.tech/petrkubec/staff-directory/backend/export"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

// newRouter wires every route over the given store.
func newRouter(s store.ProfileStore, hub *Hub, origins []string, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check endpoint for Docker
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": hub.count()})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(DataLoaderMiddleware(s))

	// ProfileStore service
	api.HandleFunc("/profiles", listProfilesHandler(s, logger)).Methods(http.MethodGet)
	api.HandleFunc("/profiles", createProfileHandler(s, logger)).Methods(http.MethodPost)
	api.HandleFunc("/profiles/{id}", getProfileHandler(s, logger)).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", updateProfileHandler(s, logger)).Methods(http.MethodPut)
	api.HandleFunc("/profiles/{id}", deleteProfileHandler(s, logger)).Methods(http.MethodDelete)

	// Pipeline views
	api.HandleFunc("/admin/profiles", adminRowsHandler(s, logger)).Methods(http.MethodGet)
	api.HandleFunc("/admin/export.xlsx", exportHandler(export.NewService(s, logger), logger)).Methods(http.MethodGet)
	api.HandleFunc("/directory/profiles", directoryRowsHandler(s, logger)).Methods(http.MethodGet)
	api.HandleFunc("/directory/interests", interestsHandler(s, logger)).Methods(http.MethodGet)
	api.HandleFunc("/directory/profiles/{id}/map", profileMapHandler(s, logger)).Methods(http.MethodGet)

	// Screen sessions
	upgrader := newUpgrader(origins)
	r.Handle("/ws/admin", wsScreenHandler("admin", hub, upgrader, newAdminSession(s, logger), logger))
	r.Handle("/ws/directory", wsScreenHandler("directory", hub, upgrader, newDirectorySession(s, logger), logger))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound)
	})
	return withCORS(origins)(r)
}

// serve runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM arrives.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.StoreOptions(), logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	hub := newHub()
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(backend, hub, cfg.Server.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting staff directory backend", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		// Hijacked websocket connections are not tracked by Shutdown
		hub.closeAll()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
