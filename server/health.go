package server

import (
	"net/http"
	"time"
)

// Health check outcomes.
const (
	checkSuccess = "success"
	checkFailed  = "failed"
	checkSkipped = "skipped"
)

// HealthCheck is the result of one named check.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthReport is the body of /health.
type HealthReport struct {
	Timestamp   string                 `json:"timestamp"`
	Status      string                 `json:"status"`
	Environment map[string]bool        `json:"environment"`
	Checks      map[string]HealthCheck `json:"checks"`
}

func (s *Server) health(r *http.Request) HealthReport {
	checks := make(map[string]HealthCheck, 3)

	if s.opts.Backend != "" {
		checks["llm"] = HealthCheck{Status: checkSuccess, Message: s.opts.Backend}
	} else {
		checks["llm"] = HealthCheck{Status: checkFailed, Error: "no conversion backend configured"}
	}

	if s.opts.OAuth.Configured() {
		checks["github_oauth"] = HealthCheck{Status: checkSuccess, Message: "client id and secret set"}
	} else {
		checks["github_oauth"] = HealthCheck{Status: checkSkipped, Message: "OAuth app not configured"}
	}

	if s.opts.Runs == nil {
		checks["run_ledger"] = HealthCheck{Status: checkSkipped, Message: "ledger disabled"}
	} else if err := s.opts.Runs.Ping(r.Context()); err != nil {
		checks["run_ledger"] = HealthCheck{Status: checkFailed, Error: err.Error()}
	} else {
		checks["run_ledger"] = HealthCheck{Status: checkSuccess}
	}

	status := "healthy"
	for _, c := range checks {
		if c.Status == checkFailed {
			status = "unhealthy"
			break
		}
	}

	return HealthReport{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Status:    status,
		Environment: map[string]bool{
			"has_llm_backend":  s.opts.Backend != "",
			"has_github_oauth": s.opts.OAuth.Configured(),
			"has_run_ledger":   s.opts.Runs != nil,
		},
		Checks: checks,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health(r)
	code := http.StatusOK
	if report.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}
