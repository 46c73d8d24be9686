package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/mdincl/internal/logfields"
	"git.home.luguber.info/inful/mdincl/internal/metrics"
	"git.home.luguber.info/inful/mdincl/internal/store"
	"git.home.luguber.info/inful/mdincl/internal/version"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Server is the daemon's admin HTTP endpoint: health, scan status, a manual
// trigger and optionally Prometheus metrics.
type Server struct {
	srv  *http.Server
	addr string
}

func newServer(addr string, d *Daemon, registry *prom.Registry) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/scan/trigger", d.handleTrigger)
	if registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
	}

	return &Server{
		addr: addr,
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start binds the listen address and serves in the background. Binding
// eagerly surfaces address conflicts at startup instead of inside the serve
// goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind admin address %s: %w", s.addr, err)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Admin server error", logfields.Error(err))
		}
	}()
	slog.Info("Admin server started", slog.String("addr", s.addr))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusPayload is the /api/status document.
type statusPayload struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Scanning  bool      `json:"scanning"`
	LastScan  *scanInfo `json:"last_scan,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

type scanInfo struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	Cause      string    `json:"cause"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Files      int       `json:"files"`
	Refs       int       `json:"refs"`
	Broken     int       `json:"broken"`
}

func newScanInfo(scan *store.Scan) *scanInfo {
	if scan == nil {
		return nil
	}
	return &scanInfo{
		ID:         scan.ID,
		Root:       scan.Root,
		Cause:      scan.Cause,
		StartedAt:  scan.StartedAt,
		FinishedAt: scan.FinishedAt,
		Files:      scan.Files,
		Refs:       scan.Refs,
		Broken:     scan.Broken,
	}
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	d.mu.RLock()
	payload := statusPayload{
		Status:    "ok",
		Version:   version.Version,
		StartedAt: d.startedAt,
		Scanning:  d.scanning,
		LastScan:  newScanInfo(d.last),
	}
	if d.lastErr != nil {
		payload.Status = "degraded"
		payload.LastError = d.lastErr.Error()
	}
	d.mu.RUnlock()

	if err := writeJSON(w, http.StatusOK, payload); err != nil {
		slog.Error("Failed to write status response", logfields.Error(err))
	}
}

func (d *Daemon) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d.Trigger(CauseManual)
	if err := writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"}); err != nil {
		slog.Error("Failed to write trigger response", logfields.Error(err))
	}
}

// writeJSON encodes into a buffer first so a failed encode never sends a
// partial body.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
