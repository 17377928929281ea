// internal/api/health.go
package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

type healthReport struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Uptime       float64           `json:"uptime"`
	Environment  string            `json:"environment"`
	Version      string            `json:"version,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// handleHealth pings every registered dependency. A failing dependency
// turns the report DEGRADED with status 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	report := healthReport{
		Status:      "OK",
		Timestamp:   now.UTC(),
		Uptime:      now.Sub(s.started).Seconds(),
		Environment: s.cfg.App.Environment,
		Version:     s.cfg.App.Version,
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		report.Dependencies = make(map[string]string, len(names))
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		for _, name := range names {
			if err := s.checks[name].Ping(ctx); err != nil {
				report.Dependencies[name] = "down"
				report.Status = "DEGRADED"
				s.log.Warn("health check failed", map[string]interface{}{"dependency": name, "error": err.Error()})
				continue
			}
			report.Dependencies[name] = "up"
		}
	}

	status := http.StatusOK
	if report.Status != "OK" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Envelope{Success: status == http.StatusOK, Data: report})
}
