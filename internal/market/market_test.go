package market

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/kolwatch/internal/models"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSource struct {
	name    string
	pairs   []models.TradingPair
	err     error
	queries []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, query string) ([]models.TradingPair, error) {
	f.queries = append(f.queries, query)
	return f.pairs, f.err
}

type fakeLister struct {
	listed bool
	err    error
	asked  []string
}

func (f *fakeLister) IsListed(_ context.Context, base string) (bool, error) {
	f.asked = append(f.asked, base)
	return f.listed, f.err
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name    string
		mention models.CandidateMention
		want    string
	}{
		{"ticker strips dollar", models.CandidateMention{Ticker: "$FOO"}, "FOO"},
		{"contract wins", models.CandidateMention{Ticker: "FOO", Contract: "0xabc"}, "0xabc"},
		{"sentinel contract ignored", models.CandidateMention{Ticker: "FOO", Contract: "NO"}, "FOO"},
		{"nothing", models.CandidateMention{Ticker: "NO", Contract: "NO"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Query(tt.mention))
		})
	}
}

func TestRankPairs(t *testing.T) {
	pairs := []models.TradingPair{
		{PairAddress: "a", FDV: 10},
		{PairAddress: "b", FDV: 500, LiquidityUSD: 1},
		{PairAddress: "c", FDV: 50},
		{PairAddress: "d", FDV: 500, LiquidityUSD: 9},
		{PairAddress: "e", FDV: 500, LiquidityUSD: 1},
	}

	ranked := RankPairs(pairs)
	var order []string
	for _, p := range ranked {
		order = append(order, p.PairAddress)
	}
	assert.Equal(t, []string{"d", "b", "e", "c", "a"}, order)
	// 原切片不变
	assert.Equal(t, "a", pairs[0].PairAddress)

	best := Best([]models.TradingPair{{FDV: 10}, {FDV: 500}, {FDV: 50}})
	require.NotNil(t, best)
	assert.Equal(t, 500.0, best.FDV)
	assert.Nil(t, Best(nil))
}

func TestMultiSourceVerifier_Verify(t *testing.T) {
	source := &fakeSource{name: "dex", pairs: []models.TradingPair{
		{BaseSymbol: "FOO", FDV: 10},
		{BaseSymbol: "FOO", FDV: 2_000_000},
	}}
	lister := &fakeLister{listed: true}
	verifier := NewMultiSourceVerifier([]PairSource{source}, lister, 0, testLogger)

	pair, err := verifier.Verify(context.Background(), models.CandidateMention{Ticker: "$FOO"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, 2_000_000.0, pair.FDV)
	assert.True(t, pair.ListedOnCEX)
	assert.Equal(t, []string{"FOO"}, source.queries)
	assert.Equal(t, []string{"FOO"}, lister.asked)
}

func TestMultiSourceVerifier_NotFound(t *testing.T) {
	source := &fakeSource{name: "dex"}
	lister := &fakeLister{}
	verifier := NewMultiSourceVerifier([]PairSource{source}, lister, 0, testLogger)

	pair, err := verifier.Verify(context.Background(), models.CandidateMention{Ticker: "ZZZ"})
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Empty(t, lister.asked)
}

func TestMultiSourceVerifier_FallsBackAndFails(t *testing.T) {
	failing := &fakeSource{name: "a", err: models.ErrTransientUpstream}
	working := &fakeSource{name: "b", pairs: []models.TradingPair{{BaseSymbol: "FOO", FDV: 1}}}

	verifier := NewMultiSourceVerifier([]PairSource{failing, working}, nil, 0, testLogger)
	pair, err := verifier.Verify(context.Background(), models.CandidateMention{Ticker: "FOO"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.False(t, pair.ListedOnCEX)

	verifier = NewMultiSourceVerifier([]PairSource{failing}, nil, 0, testLogger)
	pair, err = verifier.Verify(context.Background(), models.CandidateMention{Ticker: "FOO"})
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, models.ErrTransientUpstream)
}

func TestMultiSourceVerifier_ListingErrorIgnored(t *testing.T) {
	source := &fakeSource{name: "dex", pairs: []models.TradingPair{{BaseSymbol: "FOO", FDV: 1}}}
	verifier := NewMultiSourceVerifier([]PairSource{source}, &fakeLister{err: errors.New("down")}, 0, testLogger)

	pair, err := verifier.Verify(context.Background(), models.CandidateMention{Contract: "0xabc"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.False(t, pair.ListedOnCEX)
	assert.Equal(t, []string{"0xabc"}, source.queries)
}

func TestMultiSourceVerifier_EmptyQuery(t *testing.T) {
	source := &fakeSource{name: "dex"}
	verifier := NewMultiSourceVerifier([]PairSource{source}, nil, 0, testLogger)

	pair, err := verifier.Verify(context.Background(), models.CandidateMention{})
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.Empty(t, source.queries)
}
