// Package scoringapi exposes the scoring service's internal
// invoice-validation endpoint (pre-shared key protected). The
// unauthenticated health check is provided by httpserver.NewServer.
package scoringapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/riskshield/fraudguard/internal/fraud"
	"github.com/riskshield/fraudguard/internal/httpserver"
)

// ValidateRequest is the JSON body of POST /api/v1/invoices/validate.
type ValidateRequest struct {
	IBAN          string `json:"iban" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	VendorID      int64  `json:"vendorId" validate:"required,gt=0"`
	InvoiceNumber string `json:"invoiceNumber" validate:"required"`
}

// ValidateResponse is the JSON body returned for a successful check.
type ValidateResponse struct {
	Decision    string   `json:"decision"`
	FraudScore  int      `json:"fraudScore"`
	RiskFactors []string `json:"riskFactors"`
}

// Handler wraps the fraud engine for HTTP.
type Handler struct {
	engine *fraud.Engine
}

// NewHandler builds the validate handler around the fraud engine.
func NewHandler(engine *fraud.Engine) *Handler {
	return &Handler{engine: engine}
}

// HandleValidate decodes, validates, and scores an invoice.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		httpserver.RespondValidationError(w, map[string]string{"amount": "must be a positive decimal amount"})
		return
	}

	result, err := h.engine.Check(r.Context(), fraud.Request{
		IBAN:          req.IBAN,
		Amount:        amount,
		VendorID:      req.VendorID,
		InvoiceNumber: req.InvoiceNumber,
	})
	if err != nil {
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "fraud check failed")
		return
	}

	httpserver.Respond(w, http.StatusOK, ValidateResponse{
		Decision:    string(result.Decision),
		FraudScore:  result.Score,
		RiskFactors: result.RiskFactors,
	})
}
