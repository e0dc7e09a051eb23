package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the read-only status HTTP surface: GET /status for
// the node snapshot, GET /healthz for liveness.
func NewRouter(provider StatusProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		_ = WriteSuccess(w, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		_ = WriteSuccess(w, provider.Status())
	})

	return r
}
