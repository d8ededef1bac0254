package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a dependency's liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports 200 when the database answers a ping and 503 otherwise.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
