package edgeapi

import (
	"net/http"

	"github.com/riskshield/fraudguard/internal/edgeclient"
	"github.com/riskshield/fraudguard/internal/httpserver"
)

// ValidateRequest is the JSON body of POST /api/v1/invoices/validate.
type ValidateRequest struct {
	IBAN          string `json:"iban" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	VendorID      int64  `json:"vendorId" validate:"required,gt=0"`
	InvoiceNumber string `json:"invoiceNumber" validate:"required"`
}

// InvoiceHandler forwards validated invoice-check requests to the scoring
// service over the internal channel.
type InvoiceHandler struct {
	scoring *edgeclient.Client
}

// NewInvoiceHandler builds the proxy handler.
func NewInvoiceHandler(scoring *edgeclient.Client) *InvoiceHandler {
	return &InvoiceHandler{scoring: scoring}
}

// HandleValidate implements POST /api/v1/invoices/validate: bearer-auth is
// enforced by middleware upstream, this handler only proxies to scoring.
func (h *InvoiceHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.scoring.Validate(r.Context(), edgeclient.ValidateRequest{
		IBAN:          req.IBAN,
		Amount:        req.Amount,
		VendorID:      req.VendorID,
		InvoiceNumber: req.InvoiceNumber,
	})
	if err != nil {
		httpserver.RespondError(w, http.StatusBadGateway, "upstream_unavailable", "fraud scoring service unavailable")
		return
	}

	httpserver.Respond(w, http.StatusOK, result)
}

// HandleHealth implements GET /api/v1/invoices/health, an unauthenticated
// liveness check distinct from /actuator/health.
func (h *InvoiceHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "UP"})
}
