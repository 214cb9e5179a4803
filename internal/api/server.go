// internal/api/server.go

// Package api exposes the rating engine over HTTP: POST /evaluate runs the
// full pipeline, POST /sentiment the analysis alone, GET /health and
// GET /metrics serve operations.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rating-engine/internal/cache"
	"rating-engine/internal/common/config"
	"rating-engine/internal/common/logger"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Server wires the HTTP layer to the rating services.
type Server struct {
	evaluator Evaluator
	analyzer  Analyzer
	titles    TitleGenerator
	store     cache.Store
	logger    logger.Logger
	modelName string
	version   string

	httpServer *http.Server
}

// NewServer builds the HTTP server. The title generator and cache store may
// be nil; the corresponding features degrade gracefully.
func NewServer(cfg *config.Config, evaluator Evaluator, analyzer Analyzer, titles TitleGenerator, store cache.Store, log logger.Logger) *Server {
	s := &Server{
		evaluator: evaluator,
		analyzer:  analyzer,
		titles:    titles,
		store:     store,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		modelName: cfg.Mistral.Model,
		version:   cfg.App.Version,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Router builds the mux router with all endpoints and middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	r.HandleFunc("/sentiment", s.handleSentiment).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
			"request_id": requestIDFrom(r.Context()),
		})
	})
}
