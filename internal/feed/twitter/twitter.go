package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/utils/request"
)

const defaultBaseURL = "https://api.twitterapi.io"

// TwitterFetcher reads posts from a twitterapi.io compatible REST API.
type TwitterFetcher struct {
	baseURL    string
	apiKey     string
	httpClient *resty.Client
	limiter    *rate.Limiter
}

// NewTwitterFetcher creates a fetcher allowing rps requests per second with the given burst.
func NewTwitterFetcher(baseURL, apiKey string, rps float64, burst int) *TwitterFetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if burst < 1 {
		burst = 1
	}

	return &TwitterFetcher{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: request.WithTransientRetry(request.New(30 * time.Second)),
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type tweet struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Author    struct {
		UserName string `json:"userName"`
	} `json:"author"`
	RetweetedTweet json.RawMessage `json:"retweeted_tweet"`
	ExtendedEntities struct {
		Media []struct {
			Type          string `json:"type"`
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"extendedEntities"`
}

type tweetsResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"msg"`
	Tweets  []tweet `json:"tweets"`
	Data    *struct {
		Tweets []tweet `json:"tweets"`
	} `json:"data"`
}

func (t tweet) isRetweet() bool {
	if len(t.RetweetedTweet) > 0 && string(t.RetweetedTweet) != "null" {
		return true
	}
	return strings.HasPrefix(t.Text, "RT @")
}

func (r *tweetsResponse) all() []tweet {
	if r.Data != nil && len(r.Data.Tweets) > 0 {
		return r.Data.Tweets
	}
	return r.Tweets
}

// LatestPost implements Fetcher interface
func (f *TwitterFetcher) LatestPost(ctx context.Context, handle string) (*models.Post, error) {
	tweets, err := f.get(ctx, "/twitter/user/last_tweets", map[string]string{"userName": handle})
	if err != nil {
		return nil, err
	}

	// 接口按时间倒序返回，跳过转推，取第一条原创
	for _, t := range tweets {
		if !t.isRetweet() {
			return toPost(t, handle), nil
		}
	}
	return nil, nil
}

// PostByID implements Fetcher interface
func (f *TwitterFetcher) PostByID(ctx context.Context, id string) (*models.Post, error) {
	tweets, err := f.get(ctx, "/twitter/tweets", map[string]string{"tweet_ids": id})
	if err != nil {
		return nil, err
	}
	for _, t := range tweets {
		if t.ID == id {
			return toPost(t, t.Author.UserName), nil
		}
	}
	return nil, nil
}

func (f *TwitterFetcher) get(ctx context.Context, path string, params map[string]string) ([]tweet, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", models.ErrTransientUpstream, err)
	}

	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-Key", f.apiKey).
		SetQueryParams(params).
		Get(f.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", models.ErrTransientUpstream, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", models.ErrTransientUpstream, resp.StatusCode())
	}

	var result tweetsResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Status != "" && result.Status != "success" {
		return nil, fmt.Errorf("feed api error: %s", result.Message)
	}

	return result.all(), nil
}

func toPost(t tweet, handle string) *models.Post {
	post := &models.Post{
		ID:           t.ID,
		Permalink:    t.URL,
		Text:         t.Text,
		AuthorHandle: handle,
	}

	if post.Permalink == "" {
		post.Permalink = fmt.Sprintf("https://x.com/%s/status/%s", handle, t.ID)
	}

	if created, err := time.Parse(time.RubyDate, t.CreatedAt); err == nil {
		post.CreatedAt = created
	}

	for _, media := range t.ExtendedEntities.Media {
		if media.Type == "photo" && media.MediaURLHTTPS != "" {
			post.Images = append(post.Images, media.MediaURLHTTPS)
		}
	}

	return post
}
