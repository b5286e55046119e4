package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/utils/request"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	parseMode      = "Markdown"
)

var errRejected = errors.New("message rejected")

// TelegramNotifier sends messages through the Bot API
type TelegramNotifier struct {
	baseURL    string
	botToken   string
	httpClient *resty.Client
	logger     *slog.Logger
}

func NewTelegramNotifier(baseURL, botToken string, logger *slog.Logger) *TelegramNotifier {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &TelegramNotifier{
		baseURL:    baseURL,
		botToken:   botToken,
		httpClient: request.New(15 * time.Second),
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Dispatch implements Notifier interface.
// A Markdown message rejected by the API is sent once more as plain text.
func (n *TelegramNotifier) Dispatch(ctx context.Context, channelID, message string) error {
	err := n.send(ctx, sendMessageRequest{
		ChatID:                channelID,
		Text:                  message,
		ParseMode:             parseMode,
		DisableWebPagePreview: true,
	})
	if err == nil || !errors.Is(err, errRejected) {
		return err
	}

	n.logger.Warn("markdown message rejected, retrying as plain text", "channel", channelID, "err", err)

	if err := n.send(ctx, sendMessageRequest{
		ChatID:                channelID,
		Text:                  message,
		DisableWebPagePreview: true,
	}); err != nil {
		return fmt.Errorf("failed to send plain text message: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) send(ctx context.Context, body sendMessageRequest) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken))
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", models.ErrTransientUpstream, err)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("%w: unexpected status code: %d", models.ErrTransientUpstream, resp.StatusCode())
	}

	var result apiResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("%w: %d %s", errRejected, result.ErrorCode, result.Description)
	}
	return nil
}
