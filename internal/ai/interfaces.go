package ai

import (
	"context"
	"fmt"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Analyzer asks a generative model which token a post mentions.
type Analyzer interface {
	// ExtractMention sends the post to the model. A non-empty imageURL is attached to the request.
	// A reply without a parseable JSON object yields an error wrapping models.ErrMalformedModelOutput.
	ExtractMention(ctx context.Context, post *models.Post, imageURL string) (*Extraction, error)
}

// Extraction 模型返回的识别结果，缺失字段为 "NO"
type Extraction struct {
	Token    string `json:"token"`
	Summary  string `json:"summary"`
	Contract string `json:"contract"`
}

// Inconclusive reports whether neither token nor contract was found.
func (e *Extraction) Inconclusive() bool {
	return e == nil || (!models.Present(e.Token) && !models.Present(e.Contract))
}

const SystemPrompt = "You are a crypto token detector. Always answer with a single JSON object and nothing else."

// BuildPrompt renders the user instruction shared by every backend.
func BuildPrompt(post *models.Post) string {
	return fmt.Sprintf(`Analyze this post thoroughly: %s

Post text:
%s

Your task:
1. Find any token symbols, names, or contract addresses mentioned

Format your response as JSON:
{
  "token": "<token symbol or NO>",
  "summary": "<brief description including price, market cap if found, or NO>",
  "contract": "<contract address or NO>"
}

Examples:
{"token": "TOSHI", "summary": "TOSHI token mentioned with price movement", "contract": "0x..."}
{"token": "NO", "summary": "NO", "contract": "NO"}`, post.Permalink, post.Text)
}
