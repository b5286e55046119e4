package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, ttl time.Duration) (*httptest.Server, *ListingChecker, *atomic.Int32) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v3/exchangeInfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("symbol") {
		case "PEPEUSDT":
			_, _ = w.Write([]byte(`{"symbols": [{"symbol": "PEPEUSDT", "status": "TRADING", "baseAsset": "PEPE", "quoteAsset": "USDT"}]}`))
		case "OLDUSDT":
			_, _ = w.Write([]byte(`{"symbols": [{"symbol": "OLDUSDT", "status": "BREAK", "baseAsset": "OLD", "quoteAsset": "USDT"}]}`))
		case "BOOMUSDT":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code": -1000, "msg": "unknown error"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
		}
	}))

	checker := NewListingChecker("usdt", ttl)
	checker.client.BaseURL = server.URL
	checker.client.HTTPClient = server.Client()
	return server, checker, &calls
}

func TestListingChecker_IsListed(t *testing.T) {
	server, checker, _ := setupTestServer(t, 0)
	defer server.Close()

	tests := []struct {
		name    string
		base    string
		want    bool
		wantErr bool
	}{
		{"trading", "pepe", true, false},
		{"halted", "OLD", false, false},
		{"unknown symbol", "NEWMEME", false, false},
		{"server error", "BOOM", false, true},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listed, err := checker.IsListed(context.Background(), tt.base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, listed)
		})
	}
}

func TestListingChecker_Cache(t *testing.T) {
	server, checker, calls := setupTestServer(t, time.Hour)
	defer server.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		listed, err := checker.IsListed(context.Background(), "PEPE")
		require.NoError(t, err)
		assert.True(t, listed)
	}
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Hour)
	_, err := checker.IsListed(context.Background(), "PEPE")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
