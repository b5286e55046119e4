package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/songzhibin97/kolwatch/internal/ai"
	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/models"
)

const (
	defaultModel       = "grok-2-latest"
	defaultVisionModel = "grok-2-vision-latest"
)

// OpenAIAnalyzer implements the Analyzer interface against any OpenAI compatible chat endpoint
type OpenAIAnalyzer struct {
	client      *openai.Client
	model       string
	visionModel string
	maxTokens   int
	temperature float32
}

// NewOpenAIAnalyzer creates a new OpenAI analyzer instance
func NewOpenAIAnalyzer(cfg configs.AIConfig) *OpenAIAnalyzer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.ModelType
	if model == "" {
		model = defaultModel // 默认使用 grok
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = defaultVisionModel
	}

	return &OpenAIAnalyzer{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		visionModel: visionModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// ExtractMention implements the Analyzer interface
func (a *OpenAIAnalyzer) ExtractMention(ctx context.Context, post *models.Post, imageURL string) (*ai.Extraction, error) {
	prompt := ai.BuildPrompt(post)

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	model := a.model
	if imageURL != "" {
		model = a.visionModel
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		user.Content = prompt
	}

	resp, err := a.createChatCompletion(ctx, model, user)
	if err != nil {
		return nil, fmt.Errorf("failed to extract mention: %w", err)
	}

	return ai.ParseExtraction(resp)
}

// createChatCompletion is a helper function to make OpenAI API calls
func (a *OpenAIAnalyzer) createChatCompletion(ctx context.Context, model string, user openai.ChatCompletionMessage) (string, error) {
	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: ai.SystemPrompt,
				},
				user,
			},
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", models.ErrMalformedModelOutput)
	}

	return resp.Choices[0].Message.Content, nil
}
