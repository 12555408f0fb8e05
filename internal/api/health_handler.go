package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const readyTimeout = 2 * time.Second

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthzHandler is the liveness probe; it never touches dependencies.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, readiness{Status: "ok"})
	}
}

// ReadyzHandler pings every named dependency, each bounded by readyTimeout.
// Any failure, or a nil Pinger, answers 503 with Retry-After.
func ReadyzHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		res := readiness{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			res.Checks[name] = "ok"
			p := checks[name]
			if p == nil {
				res.Status, res.Checks[name] = "unavailable", "not configured"
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			err := p.Ping(ctx)
			cancel()
			if err != nil {
				res.Status, res.Checks[name] = "unavailable", err.Error()
			}
		}
		if len(names) == 0 {
			res.Status = "unavailable"
		}

		if res.Status != "ok" {
			w.Header().Set("Retry-After", "30")
			respondJSON(w, http.StatusServiceUnavailable, res)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}
