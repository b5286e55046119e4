package registry

import (
	"context"
	"strings"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Registry 被跟踪账号的持久化存储
type Registry interface {
	// List returns every tracked account. Ordering carries no meaning for the pipeline.
	List(ctx context.Context) ([]models.TrackedAccount, error)

	// Create registers handle; an existing account with the same handle is returned unchanged.
	Create(ctx context.Context, handle string) (*models.TrackedAccount, error)

	// Delete removes the account and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// UpdateCursor stores postID as the account's last seen post and reports whether the account exists.
	UpdateCursor(ctx context.Context, id, postID string) (bool, error)
}

// NormalizeHandle trims whitespace and a leading "@".
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// SplitHandles parses a comma separated handle list, dropping blanks.
func SplitHandles(text string) []string {
	var handles []string
	for _, part := range strings.Split(text, ",") {
		if h := NormalizeHandle(part); h != "" {
			handles = append(handles, h)
		}
	}
	return handles
}
