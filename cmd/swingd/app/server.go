package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/swingworks/swingsense/internal/swing"
)

// newServer builds the local state API. It exposes the live detector state
// for a companion UI and lets it reset the session or toggle practice mode.
func newServer(addr string, detector *swing.Detector, o *Orchestrator) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/state", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, detector.Snapshot())
	})

	r.Get("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, detector.Snapshot().Session)
	})

	r.Post("/api/session/reset", func(w http.ResponseWriter, _ *http.Request) {
		detector.ResetSession()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/api/mode/practice", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		o.SetPracticeMode(body.Enabled)
		writeJSON(w, map[string]bool{"practiceMode": o.PracticeMode()})
	})

	return &http.Server{Addr: addr, Handler: r}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
