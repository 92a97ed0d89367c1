package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medhansh29/ia-agent/internal/model"
)

// stepFunc is the shape every workflow step shares: snapshot in,
// snapshot out. Step failures live in the returned snapshot's error
// field, so a handled request is always a 200.
type stepFunc func(ctx context.Context, snap model.Snapshot) model.Snapshot

func (s *Server) step(fn stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap model.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			s.logger.Warn("rejecting malformed request", "path", r.URL.Path, "error", err)
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		out := fn(r.Context(), snap)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			s.logger.Error("failed to encode response", "path", r.URL.Path, "error", err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}
