// Package edgeclient is the internal HTTP client the edge service uses to
// forward validated fraud-check calls to the scoring service, authenticated
// by a pre-shared key. Modeled on the pkg/bookowl.Client idiom.
package edgeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// connectTimeout and readTimeout implement internal HTTP
// budget: 5s to establish the connection, 10s total for the round trip.
const (
	connectTimeout = 5 * time.Second
	readTimeout    = 10 * time.Second
)

// ValidateRequest mirrors the scoring service's request body
type ValidateRequest struct {
	IBAN          string `json:"iban"`
	Amount        string `json:"amount"`
	VendorID      int64  `json:"vendorId"`
	InvoiceNumber string `json:"invoiceNumber"`
}

// ValidateResponse mirrors the scoring service's response body.
type ValidateResponse struct {
	Decision    string   `json:"decision"`
	FraudScore  int      `json:"fraudScore"`
	RiskFactors []string `json:"riskFactors"`
}

// Client calls the scoring service's internal invoice-validation endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client with the connect/read timeout split // requires for the internal edge-to-scoring call.
func NewClient(baseURL, apiKey string) *Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{DialContext: dialer.DialContext}
	return &Client{
		httpClient: &http.Client{Timeout: readTimeout, Transport: transport},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Validate forwards a fraud-check request to the scoring service.
func (c *Client) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling scoring service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned HTTP %d", resp.StatusCode)
	}

	var result ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
