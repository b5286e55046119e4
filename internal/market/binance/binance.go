package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// 交易对不存在
const codeInvalidSymbol = -1121

type cacheEntry struct {
	listed    bool
	checkedAt time.Time
}

// ListingChecker implements market.Lister using Binance spot exchange info
type ListingChecker struct {
	client     *binance.Client
	quoteAsset string
	ttl        time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewListingChecker creates a checker for <BASE><quoteAsset> symbols. Results are cached for ttl.
func NewListingChecker(quoteAsset string, ttl time.Duration) *ListingChecker {
	if quoteAsset == "" {
		quoteAsset = "USDT"
	}
	return &ListingChecker{
		client:     binance.NewClient("", ""),
		quoteAsset: strings.ToUpper(quoteAsset),
		ttl:        ttl,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}
}

// IsListed implements Lister interface
func (c *ListingChecker) IsListed(ctx context.Context, baseSymbol string) (bool, error) {
	symbol := strings.ToUpper(strings.TrimSpace(baseSymbol)) + c.quoteAsset
	if symbol == c.quoteAsset {
		return false, nil
	}

	if listed, ok := c.cached(symbol); ok {
		return listed, nil
	}

	info, err := c.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
			c.store(symbol, false)
			return false, nil
		}
		return false, fmt.Errorf("failed to get exchange info for %s: %w", symbol, err)
	}

	listed := false
	for _, s := range info.Symbols {
		if s.Symbol == symbol && s.Status == string(binance.SymbolStatusTypeTrading) {
			listed = true
			break
		}
	}

	c.store(symbol, listed)
	return listed, nil
}

func (c *ListingChecker) cached(symbol string) (bool, bool) {
	if c.ttl <= 0 {
		return false, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[symbol]
	if !ok || c.now().Sub(entry.checkedAt) > c.ttl {
		return false, false
	}
	return entry.listed, true
}

func (c *ListingChecker) store(symbol string, listed bool) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[symbol] = cacheEntry{listed: listed, checkedAt: c.now()}
}
