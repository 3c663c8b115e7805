package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/nerrad567/ledlink-core/internal/output"
)

// healthCheckTimeout bounds each component check on /api/v1/health.
const healthCheckTimeout = 2 * time.Second

// handleLED applies ?state=on|off|toggle and replies in plain text, as the
// control page expects.
func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	cmd, err := output.ParseCommand(r.URL.Query().Get("state"))
	if err != nil {
		writeBadRequest(w, "state must be one of on, off, toggle")
		return
	}

	state, err := s.output.Apply(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, output.ErrDriver) {
			writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "LED driver failed; state unchanged")
			return
		}
		writeInternalError(w, "failed to apply LED command")
		return
	}

	writeText(w, http.StatusOK, "LED turned "+string(state))
}

// handleStatus returns {led:{state}, wifi:{rssi}, system:{uptime}}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Snapshot(r.Context()))
}

// handleClients returns {totalRequests, recentRequests:[...]} newest first.
func (s *Server) handleClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.clients.ListRecent())
}

// ComponentHealth is one entry of the health response.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is the /api/v1/health document.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components []ComponentHealth `json:"components,omitempty"`
}

// handleHealth runs the optional component checks. Any failure makes the
// response 503 "degraded"; the HTTP server itself still answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.version}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()

		entry := ComponentHealth{Name: name, Status: "ok"}
		if err != nil {
			entry.Status = "error"
			entry.Error = err.Error()
			resp.Status = "degraded"
		}
		resp.Components = append(resp.Components, entry)
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
