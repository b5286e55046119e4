package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func setupTestServer(t *testing.T, reply string, check func(body map[string]any)) (*httptest.Server, *GeminiAnalyzer) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/image.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngHeader)
			return
		}

		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		if check != nil {
			check(body)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": reply}},
					},
				},
			},
		})
	}))

	analyzer, err := NewGeminiAnalyzer(context.Background(), configs.AIConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		ModelType:   "gemini-test",
		MaxTokens:   500,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	analyzer.httpClient = resty.NewWithClient(server.Client())

	return server, analyzer
}

func userParts(t *testing.T, body map[string]any) []any {
	contents, ok := body["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	parts, ok := contents[0].(map[string]any)["parts"].([]any)
	require.True(t, ok)
	return parts
}

func TestGeminiAnalyzer_ExtractMention_Text(t *testing.T) {
	server, analyzer := setupTestServer(t, `{"token": "FOO", "summary": "FOO call", "contract": "NO"}`, func(body map[string]any) {
		parts := userParts(t, body)
		require.Len(t, parts, 1)
		assert.Contains(t, parts[0].(map[string]any)["text"], "gm $FOO")
	})
	defer server.Close()

	extraction, err := analyzer.ExtractMention(context.Background(), &models.Post{Text: "gm $FOO"}, "")
	require.NoError(t, err)
	assert.Equal(t, "FOO", extraction.Token)
	assert.Equal(t, "NO", extraction.Contract)
}

func TestGeminiAnalyzer_ExtractMention_Image(t *testing.T) {
	server, analyzer := setupTestServer(t, `{"token": "BAR", "summary": "NO", "contract": "NO"}`, func(body map[string]any) {
		parts := userParts(t, body)
		require.Len(t, parts, 2)
		inline, ok := parts[1].(map[string]any)["inlineData"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "image/png", inline["mimeType"])
	})
	defer server.Close()

	extraction, err := analyzer.ExtractMention(context.Background(), &models.Post{Text: "look"}, server.URL+"/image.png")
	require.NoError(t, err)
	assert.Equal(t, "BAR", extraction.Token)
}

func TestGeminiAnalyzer_ExtractMention_Malformed(t *testing.T) {
	server, analyzer := setupTestServer(t, "no idea", nil)
	defer server.Close()

	_, err := analyzer.ExtractMention(context.Background(), &models.Post{Text: "gm"}, "")
	assert.ErrorIs(t, err, models.ErrMalformedModelOutput)
}

func TestNewGeminiAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), configs.AIConfig{})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}
