package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/kolwatch/internal/market"
	"github.com/songzhibin97/kolwatch/internal/models"
)

func setupTestServer(t *testing.T, status int, body string) (*httptest.Server, *DexScreenerSource) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "FOO", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	source := NewDexScreenerSource(server.URL)
	source.httpClient = resty.NewWithClient(server.Client())
	return server, source
}

func TestDexScreenerSource_Search(t *testing.T) {
	server, source := setupTestServer(t, http.StatusOK, `{
		"schemaVersion": "1.0.0",
		"pairs": [
			{"chainId": "solana", "dexId": "raydium", "pairAddress": "P1", "baseToken": {"symbol": "FOO", "name": "Foo", "address": "A1"}, "fdv": 10, "liquidity": {"usd": 5}},
			{
				"chainId": "ethereum", "dexId": "uniswap", "url": "https://dexscreener.com/ethereum/p2", "pairAddress": "P2",
				"baseToken": {"symbol": "FOO", "name": "Foo Token", "address": "A2"},
				"fdv": 500, "liquidity": {"usd": 1000}, "volume": {"h24": 12345.5, "h1": 10},
				"pairCreatedAt": 1700000000000,
				"info": {"websites": [{"label": "Website", "url": "https://foo.xyz"}], "socials": [{"type": "twitter", "url": "https://x.com/foo"}]}
			},
			{"chainId": "base", "dexId": "aerodrome", "pairAddress": "P3", "baseToken": {"symbol": "FOO"}, "fdv": 50}
		]
	}`)
	defer server.Close()

	pairs, err := source.Search(context.Background(), "FOO")
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	p := pairs[1]
	assert.Equal(t, "ethereum", p.ChainID)
	assert.Equal(t, "A2", p.BaseAddress)
	assert.Equal(t, "Foo Token", p.BaseName)
	assert.Equal(t, 1000.0, p.LiquidityUSD)
	assert.Equal(t, 12345.5, p.Volume["h24"])
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), p.PairCreatedAt)
	assert.Equal(t, []models.SocialLink{
		{Type: "twitter", URL: "https://x.com/foo"},
		{Type: "website", URL: "https://foo.xyz"},
	}, p.SocialLinks)

	best := market.Best(pairs)
	require.NotNil(t, best)
	assert.Equal(t, 500.0, best.FDV)
	assert.Equal(t, "P2", best.PairAddress)
}

func TestDexScreenerSource_SearchEmpty(t *testing.T) {
	server, source := setupTestServer(t, http.StatusOK, `{"schemaVersion": "1.0.0", "pairs": null}`)
	defer server.Close()

	pairs, err := source.Search(context.Background(), "FOO")
	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Nil(t, market.Best(pairs))
}

func TestDexScreenerSource_SearchServerError(t *testing.T) {
	server, source := setupTestServer(t, http.StatusInternalServerError, `oops`)
	defer server.Close()

	pairs, err := source.Search(context.Background(), "FOO")
	assert.Nil(t, pairs)
	assert.ErrorIs(t, err, models.ErrTransientUpstream)
}
