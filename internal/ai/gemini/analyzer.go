package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"google.golang.org/genai"

	"github.com/songzhibin97/kolwatch/internal/ai"
	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/utils/request"
)

const defaultModel = "gemini-2.0-flash"

// GeminiAnalyzer implements the Analyzer interface using the Gemini API.
// Images are downloaded and sent inline.
type GeminiAnalyzer struct {
	client      *genai.Client
	httpClient  *resty.Client
	model       string
	visionModel string
	maxTokens   int32
	temperature float32
}

// NewGeminiAnalyzer creates a Gemini analyzer. BaseURL overrides the API endpoint when set.
func NewGeminiAnalyzer(ctx context.Context, cfg configs.AIConfig) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", models.ErrConfiguration)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.ModelType
	if model == "" {
		model = defaultModel
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = model
	}

	return &GeminiAnalyzer{
		client:      client,
		httpClient:  request.New(30 * time.Second),
		model:       model,
		visionModel: visionModel,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

// ExtractMention implements the Analyzer interface
func (a *GeminiAnalyzer) ExtractMention(ctx context.Context, post *models.Post, imageURL string) (*ai.Extraction, error) {
	parts := []*genai.Part{genai.NewPartFromText(ai.BuildPrompt(post))}

	model := a.model
	if imageURL != "" {
		data, mimeType, err := a.download(ctx, imageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType))
		model = a.visionModel
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ai.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(a.temperature),
		MaxOutputTokens:   a.maxTokens,
	}

	resp, err := a.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response from gemini", models.ErrMalformedModelOutput)
	}

	return ai.ParseExtraction(text)
}

func (a *GeminiAnalyzer) download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := a.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", models.ErrTransientUpstream, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	body := resp.Body()
	mimeType := resp.Header().Get("Content-Type")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(body)
	}
	return body, mimeType, nil
}
