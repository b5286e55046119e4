package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/songzhibin97/kolwatch/internal/models"
)

const (
	evmAddress    = "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"
	solanaAddress = "So11111111111111111111111111111111111111112"
)

func TestFindTicker(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar marker", "Check out $FOO now", "FOO"},
		{"suffix stem", "Launching BARCOIN today", "BAR"},
		{"suffix word follows", "aping into Pepe INU right now", "PEPE"},
		{"ticker word marker", "TICKER: MOON launching soon", "MOON"},
		{"inline ticker word marker", "symbol:ZAP is live", "ZAP"},
		{"punctuation stripped", "gm ($WIF), still early.", "WIF"},
		{"numeric dollar rejected", "just made $5000 today", ""},
		{"suffixed numeric rejected", "market cap hit $5K", ""},
		{"decimal numeric rejected", "price $1.5M soon", ""},
		{"numeric skipped then ticker", "$5000 profit on $BONK", "BONK"},
		{"thousands separator rejected", "just made $5,000 today", ""},
		{"separated decimal rejected", "raised $1,250.50 so far", ""},
		{"numeric range rejected", "up $10-20K", ""},
		{"word marker before contract", "Token: 0x1111111111111111111111111111111111111111", ""},
		{"word marker before solana mint", "TOKEN: So11111111111111111111111111111111111111112 live", ""},
		{"contract skipped then ticker", "Token: 0x1111111111111111111111111111111111111111 $FOO", "FOO"},
		{"ticker with digits kept", "loading $1INCH bags", "1INCH"},
		{"common word before suffix", "the new AI agents are wild", ""},
		{"suffix on last word", "I am bullish on NEIROCOIN", "NEIRO"},
		{"generic suffix term", "BITCOIN is king", ""},
		{"stem too short", "WETH wrapped", ""},
		{"lowercase suffix word not stemmed", "barcoin", ""},
		{"nothing", "good morning everyone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindTicker(tt.text))
		})
	}
}

func TestFindContract(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantAddr  string
		wantChain string
	}{
		{"ethereum", "CA: " + evmAddress + " go", evmAddress, ChainEthereum},
		{"solana", "mint " + solanaAddress, solanaAddress, ChainSolana},
		{"ethereum wins priority", solanaAddress + " and " + evmAddress, evmAddress, ChainEthereum},
		{"base58 lookalike rejected", "abcdefghijkmnopqrstuvwxyzABCDEFGH", "", ""},
		{"too short hex", "0xABCDEF", "", ""},
		{"none", "no address here", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, chain := FindContract(tt.text)
			assert.Equal(t, tt.wantAddr, addr)
			assert.Equal(t, tt.wantChain, chain)
		})
	}
}

func TestScan(t *testing.T) {
	text := "Check out $FOO now " + evmAddress
	mention := Scan(text)

	assert.Equal(t, "FOO", mention.Ticker)
	assert.Equal(t, evmAddress, mention.Contract)
	assert.Equal(t, ChainEthereum, mention.Chain)
	assert.Equal(t, text, mention.Summary)
	assert.Equal(t, models.TierHeuristic, mention.SourceTier)
	assert.True(t, mention.Actionable())

	empty := Scan("nothing to see")
	assert.False(t, empty.Actionable())
}

func TestChainOf(t *testing.T) {
	assert.Equal(t, ChainEthereum, ChainOf(evmAddress))
	assert.Equal(t, ChainSolana, ChainOf(" "+solanaAddress+" "))
	assert.Equal(t, "", ChainOf("NO"))
	assert.Equal(t, "", ChainOf(evmAddress+"ff"))
}
