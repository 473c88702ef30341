// Package api exposes the agent's reporting and control surface over HTTP:
// a per-symbol stats snapshot plus start and stop switches for the trading
// loop. It is a thin facade; no trading logic lives here.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/stats"
	"github.com/rxtech-lab/argo-pilot/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Controller is the trading switch the control endpoints flip. It is
// satisfied by the orchestrator.
type Controller interface {
	Running() bool
	Resume() error
	Pause() error
}

// StatsSource provides the accumulated per-symbol outcomes.
type StatsSource interface {
	Snapshot() stats.Snapshot
}

// Server serves the control surface on a plain HTTP listener.
type Server struct {
	controller Controller
	source     StatsSource
	logger     *logger.Logger

	httpServer *http.Server
	listener   net.Listener
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewServer creates a control server around the given switch and stats
// source.
func NewServer(controller Controller, source StatsSource, log *logger.Logger) *Server {
	return &Server{
		controller: controller,
		source:     source,
		logger:     log,
		httpServer: nil,
		listener:   nil,
	}
}

// Start begins serving on the given address. If address is empty or ":0",
// a random available port is used.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.logRequests)
	router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	router.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.logger.Error("control server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("control server listening", zap.String("address", s.Address()))

	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// handleStats serves the per-symbol outcome map.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.source.Snapshot().Symbols)
}

// handleStart resumes trading. Resuming an already-running agent is an
// error, mirroring the stop side.
func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.controller.Resume(); err != nil {
		s.writeJSON(w, http.StatusConflict, statusResponse{
			Status:  "error",
			Message: "trading is already running",
		})

		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "trading started",
	})
}

// handleStop pauses trading. Open contracts are left to settle; only new
// submissions stop.
func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if err := s.controller.Pause(); err != nil {
		s.writeJSON(w, http.StatusConflict, statusResponse{
			Status:  "error",
			Message: "trading is not running",
		})

		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "trading stopped",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "OK",
		"version": version.Version,
		"running": s.controller.Running(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
