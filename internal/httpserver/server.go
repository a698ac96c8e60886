package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackmichael/replyguard/internal/artifact"
	"github.com/blackmichael/replyguard/internal/config"
	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/moderation"
	"github.com/blackmichael/replyguard/internal/source"
)

// Server is the HTTP server exposing the analysis pipeline, the state
// artifact, and the moderation interfaces.
type Server struct {
	cfg        *config.Config
	pipeline   *domain.Pipeline
	feed       *source.FileSource
	moderation *moderation.Store
	artifact   *artifact.Publisher
	archive    domain.SessionArchive
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates the HTTP server. archive may be nil to disable the
// sessions endpoint.
func NewServer(
	cfg *config.Config,
	pipeline *domain.Pipeline,
	feed *source.FileSource,
	moderationStore *moderation.Store,
	artifactPublisher *artifact.Publisher,
	archive domain.SessionArchive,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:        cfg,
		pipeline:   pipeline,
		feed:       feed,
		moderation: moderationStore,
		artifact:   artifactPublisher,
		archive:    archive,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyses", s.handleAnalyze)
	mux.HandleFunc("GET /api/analyses/state", s.handleState)
	mux.HandleFunc("GET /api/moderation", s.handleModerationList)
	mux.HandleFunc("GET /api/moderation/ws", s.handleModerationSubscribe)
	mux.HandleFunc("GET /api/feed", s.handleFeed)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: withLogging(logger, mux),
		// Analysis runs synchronously inside the request; give it room.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	PostID string `json:"post_id"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "post_id is required")
		return
	}

	post, err := s.feed.Post(req.PostID)
	if err != nil {
		if errors.Is(err, source.ErrPostNotFound) {
			writeError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("post %s not found in feed", req.PostID))
			return
		}
		s.logger.Error("failed to load feed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to load feed")
		return
	}

	result, err := s.pipeline.Run(r.Context(), "analyze_request", post)
	if err != nil {
		s.logger.Error("analysis run failed", "post_id", req.PostID, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("analysis completed, %d replies analyzed", len(result.Outcomes)),
		"result":  result,
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	data, err := s.artifact.ReadCurrent()
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "NotFound", "no analysis has been published yet")
			return
		}
		s.logger.Error("failed to read state artifact", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to read state artifact")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleModerationList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"moderation_actions": s.moderation.List(),
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	feed, err := s.feed.Feed()
	if err != nil {
		s.logger.Error("failed to load feed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to load feed")
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "NotFound", "session archive is disabled")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	sessions, err := s.archive.RecentSessions(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
