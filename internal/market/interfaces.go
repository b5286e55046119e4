package market

import (
	"context"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Verifier cross-checks a mention against live market data
type Verifier interface {
	// Verify returns the best ranked pair, or nil without error when nothing matched
	Verify(ctx context.Context, mention models.CandidateMention) (*models.TradingPair, error)
}

// PairSource is a keyword searchable market data provider
type PairSource interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.TradingPair, error)
}

// Lister reports whether a base asset trades on a centralized exchange
type Lister interface {
	IsListed(ctx context.Context, baseSymbol string) (bool, error)
}
