package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the runner's filtering state over HTTP in serve mode.
type Server struct {
	runner *Runner
	server *http.Server
}

// NewServer creates a status server for the given runner.
func NewServer(runner *Runner, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		runner: runner,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reports := s.runner.Reports()

	total := 0
	for _, rep := range reports {
		total += rep.Hidden
	}
	response := struct {
		Pages       []PageReport `json:"pages"`
		TotalHidden int          `json:"total_hidden"`
	}{Pages: reports, TotalHidden: total}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
