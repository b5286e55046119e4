package feed

import (
	"context"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Fetcher 社交平台帖子获取
type Fetcher interface {
	// LatestPost returns the account's most recent original post (retweets skipped), or nil when there is none.
	LatestPost(ctx context.Context, handle string) (*models.Post, error)

	// PostByID returns a single post, or nil when it does not exist. Used by offline diagnostics.
	PostByID(ctx context.Context, id string) (*models.Post, error)
}
