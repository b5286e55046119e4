package extract

import (
	"context"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Extractor turns a post into at most one candidate mention.
type Extractor interface {
	// Extract never fails for an inconclusive post; it returns an empty mention instead.
	Extract(ctx context.Context, post *models.Post) (models.CandidateMention, error)
}

// Strategy is one tier of the extraction chain.
type Strategy interface {
	Name() models.SourceTier
	Extract(ctx context.Context, post *models.Post) (models.CandidateMention, error)
}
