// Package web exposes the status and control HTTP surface.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfeld/voiceled/internal/engine"
	"github.com/mfeld/voiceled/internal/event"
)

// StatusSource provides the current engine snapshot.
type StatusSource interface {
	Snapshot() engine.Snapshot
}

// Server serves GET /status plus the /toggle and /shutdown controls.
type Server struct {
	log    logrus.FieldLogger
	bus    *event.Bus
	source StatusSource
	srv    *http.Server
}

// NewServer creates the HTTP server on addr.
func NewServer(log logrus.FieldLogger, addr string, source StatusSource, bus *event.Bus) *Server {
	s := &Server{
		log:    log.WithField("component", "web"),
		bus:    bus,
		source: source,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/toggle", s.handleToggle)
	mux.HandleFunc("/shutdown", s.handleShutdown)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.log.WithField("addr", s.srv.Addr).Info("Status server listening")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Status server failed")
		}
	}()

	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.source.Snapshot()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.WithError(err).Warn("Failed to encode status response")
	}
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.bus.Publish(event.HotkeyToggle())
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.bus.Publish(event.Shutdown())
	w.WriteHeader(http.StatusAccepted)
}
