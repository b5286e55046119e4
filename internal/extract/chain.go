package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/songzhibin97/kolwatch/internal/ai"
	"github.com/songzhibin97/kolwatch/internal/models"
)

// Chain tries its strategies in order and stops at the first actionable mention.
// A tier failing for any reason other than malformed model output ends the chain with no mention.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		logger:     logger,
	}
}

// Extract implements Extractor interface
func (c *Chain) Extract(ctx context.Context, post *models.Post) (models.CandidateMention, error) {
	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return models.CandidateMention{}, err
		}

		mention, err := strategy.Extract(ctx, post)
		if err != nil {
			c.logger.Warn("extraction tier failed", "tier", strategy.Name(), "post", post.ID, "err", err)
			// 只有输出格式错误才算未识别并继续下一层，上游故障直接结束
			if errors.Is(err, models.ErrMalformedModelOutput) {
				continue
			}
			return models.CandidateMention{}, ctx.Err()
		}

		if mention.Actionable() {
			mention.SourceTier = strategy.Name()
			c.logger.Debug("mention found", "tier", mention.SourceTier, "post", post.ID,
				"ticker", mention.Ticker, "contract", mention.Contract)
			return mention, nil
		}
	}

	return models.CandidateMention{}, nil
}

// NewDefaultChain builds heuristic, model-text and model-vision tiers. A nil analyzer leaves only the heuristic tier.
func NewDefaultChain(logger *slog.Logger, analyzer ai.Analyzer, modelTimeout time.Duration) *Chain {
	strategies := []Strategy{Heuristic{}}
	if analyzer != nil {
		strategies = append(strategies,
			NewTextStrategy(analyzer, modelTimeout),
			NewVisionStrategy(analyzer, modelTimeout),
		)
	}
	return NewChain(logger, strategies...)
}
