package edgeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskshield/fraudguard/internal/edgeclient"
)

func TestHandleValidate_ProxiesToScoring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(edgeclient.ValidateResponse{
			Decision:    "REVIEW",
			FraudScore:  45,
			RiskFactors: []string{"Unusual transaction velocity detected"},
		})
	}))
	defer upstream.Close()

	client := edgeclient.NewClient(upstream.URL, "internal-key")
	handler := NewInvoiceHandler(client)

	body, _ := json.Marshal(ValidateRequest{
		IBAN:          "BG80BNBG96611020345678",
		Amount:        "6000.00",
		VendorID:      3,
		InvoiceNumber: "INV-9",
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/validate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleValidate(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp edgeclient.ValidateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "REVIEW", resp.Decision)
	assert.Equal(t, 45, resp.FraudScore)
}

func TestHandleValidate_UpstreamUnavailableReturns502(t *testing.T) {
	client := edgeclient.NewClient("http://127.0.0.1:1", "internal-key")
	handler := NewInvoiceHandler(client)

	body, _ := json.Marshal(ValidateRequest{
		IBAN:          "BG80BNBG96611020345678",
		Amount:        "10.00",
		VendorID:      1,
		InvoiceNumber: "INV-10",
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/validate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleValidate(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleHealth(t *testing.T) {
	handler := NewInvoiceHandler(edgeclient.NewClient("http://example.invalid", "k"))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/health", nil)
	w := httptest.NewRecorder()
	handler.HandleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}
