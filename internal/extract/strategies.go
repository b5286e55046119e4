package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/kolwatch/internal/ai"
	"github.com/songzhibin97/kolwatch/internal/extract/heuristic"
	"github.com/songzhibin97/kolwatch/internal/models"
)

// Heuristic is the pattern based tier. It never performs I/O.
type Heuristic struct{}

func (Heuristic) Name() models.SourceTier { return models.TierHeuristic }

func (Heuristic) Extract(_ context.Context, post *models.Post) (models.CandidateMention, error) {
	return heuristic.Scan(post.Text), nil
}

// Model asks an ai.Analyzer. With Vision set it attaches the first image and skips posts without one.
type Model struct {
	Analyzer ai.Analyzer
	Timeout  time.Duration
	Vision   bool
}

// NewTextStrategy returns the model-text tier.
func NewTextStrategy(analyzer ai.Analyzer, timeout time.Duration) *Model {
	return &Model{Analyzer: analyzer, Timeout: timeout}
}

// NewVisionStrategy returns the model-vision tier.
func NewVisionStrategy(analyzer ai.Analyzer, timeout time.Duration) *Model {
	return &Model{Analyzer: analyzer, Timeout: timeout, Vision: true}
}

func (m *Model) Name() models.SourceTier {
	if m.Vision {
		return models.TierModelVision
	}
	return models.TierModelText
}

func (m *Model) Extract(ctx context.Context, post *models.Post) (models.CandidateMention, error) {
	imageURL := ""
	if m.Vision {
		if len(post.Images) == 0 {
			return models.CandidateMention{}, nil
		}
		imageURL = post.Images[0]
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	extraction, err := m.Analyzer.ExtractMention(ctx, post, imageURL)
	if err != nil {
		return models.CandidateMention{}, fmt.Errorf("failed to call model: %w", err)
	}
	if extraction.Inconclusive() {
		return models.CandidateMention{}, nil
	}

	mention := models.CandidateMention{
		Summary:    extraction.Summary,
		SourceTier: m.Name(),
	}
	if models.Present(extraction.Token) {
		mention.Ticker = strings.TrimSpace(extraction.Token)
	}
	if models.Present(extraction.Contract) {
		mention.Contract = strings.TrimSpace(extraction.Contract)
		mention.Chain = heuristic.ChainOf(mention.Contract)
	}
	if !models.Present(mention.Summary) {
		mention.Summary = post.Text
	}

	return mention, nil
}
