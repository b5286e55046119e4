package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// MultiSourceVerifier implements Verifier by asking each source in order
type MultiSourceVerifier struct {
	sources []PairSource
	lister  Lister
	timeout time.Duration
	logger  *slog.Logger
}

// NewMultiSourceVerifier creates a verifier. lister may be nil to skip CEX enrichment.
func NewMultiSourceVerifier(sources []PairSource, lister Lister, timeout time.Duration, logger *slog.Logger) *MultiSourceVerifier {
	return &MultiSourceVerifier{
		sources: sources,
		lister:  lister,
		timeout: timeout,
		logger:  logger,
	}
}

// Verify implements Verifier interface
func (v *MultiSourceVerifier) Verify(ctx context.Context, mention models.CandidateMention) (*models.TradingPair, error) {
	query := Query(mention)
	if query == "" {
		return nil, nil
	}

	var errs []error
	for _, source := range v.sources {
		pairs, err := v.search(ctx, source, query)
		if err != nil {
			v.logger.Error("failed to search pairs", "source", source.Name(), "query", query, "err", err)
			errs = append(errs, err)
			continue
		}

		best := Best(pairs)
		if best == nil {
			v.logger.Debug("no pairs found", "source", source.Name(), "query", query)
			return nil, nil
		}

		v.logger.Info("verified mention", "source", source.Name(), "query", query,
			"symbol", best.BaseSymbol, "fdv", best.FDV, "pairs", len(pairs))
		v.enrich(ctx, best)
		return best, nil
	}

	if len(errs) == 0 {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to verify %q from all sources: %w", query, errors.Join(errs...))
}

func (v *MultiSourceVerifier) search(ctx context.Context, source PairSource, query string) ([]models.TradingPair, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	return source.Search(ctx, query)
}

// enrich 查询CEX上架情况，失败忽略
func (v *MultiSourceVerifier) enrich(ctx context.Context, pair *models.TradingPair) {
	if v.lister == nil || pair.BaseSymbol == "" {
		return
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	listed, err := v.lister.IsListed(ctx, pair.BaseSymbol)
	if err != nil {
		v.logger.Warn("listing check failed", "symbol", pair.BaseSymbol, "err", err)
		return
	}
	pair.ListedOnCEX = listed
}
