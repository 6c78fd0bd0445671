package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/docs"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Health serves GET /healthz. Every named check must pass.
func Health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if healthy {
			rest.WriteJSON(w, http.StatusOK, status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: rest.ErrorDetail{
				Code:    "UNHEALTHY",
				Message: "A dependency is unavailable",
				Details: status,
			},
		})
	}
}

func HandleOpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := docs.Read()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write([]byte(doc))
}
