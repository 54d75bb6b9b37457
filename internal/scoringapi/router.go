package scoringapi

import (
	"github.com/go-chi/chi/v5"
)

// Mount wires the scoring service's invoice-validation route onto r, guarded
// by the pre-shared API key. The health endpoint is mounted separately by
// httpserver.NewServer and stays unauthenticated.
func Mount(r chi.Router, handler *Handler, apiKey string) {
	r.Route("/api/v1/invoices", func(sub chi.Router) {
		sub.Use(RequireAPIKey(apiKey))
		sub.Post("/validate", handler.HandleValidate)
	})
}
