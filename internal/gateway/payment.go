package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentGateway attempts an external transfer. Implementations must be
// treated as at-most-once: the engine never retries a failed attempt, it
// records the outcome instead.
type PaymentGateway interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error)
}

// TransferRequest is the outbound payout payload. TransactionID is generated
// locally and unique per attempt so the gateway can deduplicate.
type TransferRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	DestinationAddress string          `json:"destination_address"`
	TransactionID      string          `json:"transaction_id"`
}

// TransferResponse carries the gateway's verdict for one attempt.
type TransferResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message,omitempty"`
}

// Succeeded reports whether the gateway accepted the transfer.
func (r *TransferResponse) Succeeded() bool {
	return r.Status == "success"
}

// HTTPGateway is the JSON-over-HTTP payment gateway client.
type HTTPGateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Transfer posts the payout request and decodes the gateway's status.
func (g *HTTPGateway) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var transferResp TransferResponse
	if err := json.Unmarshal(body, &transferResp); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &transferResp, nil
}
