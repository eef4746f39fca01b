package server

import (
	"context"
	"net/http"
	"time"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/httputil"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/metrics"
)

// HealthResponse is the response for /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// InfoResponse is the response for /info.
type InfoResponse struct {
	Status     string         `json:"status"`
	Service    string         `json:"service"`
	Version    string         `json:"version"`
	Uptime     string         `json:"uptime"`
	Timestamp  string         `json:"timestamp"`
	Statistics map[string]any `json:"statistics,omitempty"`
}

// RegisterStandardRoutes registers /health, /info and /metrics.
func (s *Server) RegisterStandardRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

// HealthStatus runs every check and returns the aggregated status with
// per-dependency results. Failing dependencies degrade the service; the
// frame can still answer with errors for the affected routes.
func (s *Server) HealthStatus(ctx context.Context) (string, map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := "healthy"
	results := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Fn(ctx); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("check", check.Name).Warn("health check failed")
			results[check.Name] = "error: " + err.Error()
			status = "degraded"
			continue
		}
		results[check.Name] = "ok"
	}
	return status, results
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, checks := s.HealthStatus(r.Context())
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Service:   s.name,
		Version:   s.version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{
		Status:    "active",
		Service:   s.name,
		Version:   s.version,
		Uptime:    s.Uptime().Truncate(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.statsFn != nil {
		resp.Statistics = s.statsFn()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
