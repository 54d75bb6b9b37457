package edgeapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/riskshield/fraudguard/internal/auth"
)

// Mount wires the edge service's auth and invoice-proxy routes onto r.
func Mount(r chi.Router, authHandler *AuthHandler, invoiceHandler *InvoiceHandler, tokens *auth.TokenService) {
	r.Route("/api/auth", func(sub chi.Router) {
		sub.Post("/login", authHandler.HandleLogin)
		sub.Post("/logout", authHandler.HandleLogout)
		sub.Post("/refresh", authHandler.HandleRefresh)
	})

	r.Route("/api/v1/invoices", func(sub chi.Router) {
		sub.Get("/health", invoiceHandler.HandleHealth)
		sub.Group(func(protected chi.Router) {
			protected.Use(auth.RequireBearer(tokens))
			protected.Post("/validate", invoiceHandler.HandleValidate)
		})
	})
}
