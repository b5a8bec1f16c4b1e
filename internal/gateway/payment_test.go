package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayTransferSuccess(t *testing.T) {
	var received TransferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transfers", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(TransferResponse{
			Status:        "success",
			TransactionID: received.TransactionID,
		})
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "test-key", 5*time.Second)
	resp, err := gw.Transfer(context.Background(), TransferRequest{
		Amount:             decimal.RequireFromString("25.5"),
		DestinationAddress: "addr-1",
		TransactionID:      "tx-123",
	})
	require.NoError(t, err)
	require.True(t, resp.Succeeded())
	require.Equal(t, "tx-123", resp.TransactionID)
	require.Equal(t, "addr-1", received.DestinationAddress)
	require.True(t, received.Amount.Equal(decimal.RequireFromString("25.5")))
}

func TestHTTPGatewayTransferRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TransferResponse{Status: "failed", Message: "destination unknown"})
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "", 5*time.Second)
	resp, err := gw.Transfer(context.Background(), TransferRequest{
		Amount:             decimal.RequireFromString("10"),
		DestinationAddress: "addr-x",
		TransactionID:      "tx-1",
	})
	require.NoError(t, err)
	require.False(t, resp.Succeeded())
	require.Equal(t, "destination unknown", resp.Message)
}

func TestHTTPGatewayTransferHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "", 5*time.Second)
	_, err := gw.Transfer(context.Background(), TransferRequest{TransactionID: "tx-1"})
	require.Error(t, err)
}

func TestHTTPGatewayTransferTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "", 20*time.Millisecond)
	_, err := gw.Transfer(context.Background(), TransferRequest{TransactionID: "tx-1"})
	require.Error(t, err)
}
