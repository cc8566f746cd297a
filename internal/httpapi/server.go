package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blog-api/internal/auth"
	"blog-api/internal/config"
	"blog-api/internal/obs"
	"blog-api/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Server struct {
	cfg      config.Config
	store    store.Store
	log      *zap.Logger
	mux      *http.ServeMux
	hasher   auth.Hasher
	codec    *auth.Codec
	resolver *auth.Resolver
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(cfg config.Config, st store.Store, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		log:      log,
		mux:      http.NewServeMux(),
		hasher:   auth.NewHasher(cfg.Auth.BcryptCost),
		codec:    codec,
		resolver: auth.NewResolver(codec, st),
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoverMiddleware(s.log, h)
	h = loggingMiddleware(s.log, h)
	h = requestIDMiddleware(h)
	h = corsMiddleware(s.cfg.Server.CORSOrigins, h)
	h = obs.TraceHandler(h, "http.server")
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /auth/user/login", s.handleUserLogin)
	s.mux.HandleFunc("POST /auth/login", s.handleFormLogin)
	s.mux.HandleFunc("POST /auth/user/refresh-token", s.handleRefresh)
	s.mux.Handle("GET /auth/protected-route", s.requireUser(http.HandlerFunc(s.handleProtected)))
	s.mux.Handle("DELETE /auth/account", s.requireUser(http.HandlerFunc(s.handleDeleteAccount)))

	s.mux.HandleFunc("POST /admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("POST /admin/register", s.handleAdminRegister)
	s.mux.Handle("GET /admin/users", s.requireAdmin(http.HandlerFunc(s.handleAdminUsers)))
	s.mux.Handle("DELETE /admin/users/{id}", s.requireAdmin(http.HandlerFunc(s.handleAdminDeleteUser)))
	s.mux.Handle("GET /admin/logs", s.requireAdmin(http.HandlerFunc(s.handleAdminLogs)))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": s.cfg.App.Name + " is running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":   false,
			"time": s.now().Format(time.RFC3339Nano),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": s.now().Format(time.RFC3339Nano),
	})
}
