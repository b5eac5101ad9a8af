// Package diag provides the read-only diagnostics HTTP surface
// (§6 [ADD]): a liveness probe and a JSON status dump, grounded on the
// teacher's internal/api.NewRouter chi wiring but trimmed to the two
// read-only routes this client needs — no command endpoints, no auth,
// no SSE.
package diag

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crowbarz/avrctl-go/internal/conn"
	"github.com/crowbarz/avrctl-go/internal/store"
)

// StatusSource supplies the data the diagnostics routes report. The
// facade (internal/avr.Client) implements it.
type StatusSource interface {
	State() conn.State
	Snapshot() store.Snapshot
}

// NewRouter builds the diagnostics router: GET /healthz reports 200
// once the engine reaches Connected, GET /status dumps the store
// snapshot as JSON.
func NewRouter(src StatusSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if src.State() != conn.Connected {
			http.Error(w, "not connected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return r
}
