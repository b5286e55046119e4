package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/songzhibin97/kolwatch/internal/ai"
	"github.com/songzhibin97/kolwatch/internal/ai/gemini"
	"github.com/songzhibin97/kolwatch/internal/ai/openai"
	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/extract"
	"github.com/songzhibin97/kolwatch/internal/feed"
	"github.com/songzhibin97/kolwatch/internal/feed/twitter"
	"github.com/songzhibin97/kolwatch/internal/market"
	"github.com/songzhibin97/kolwatch/internal/market/binance"
	"github.com/songzhibin97/kolwatch/internal/market/dexscreener"
	"github.com/songzhibin97/kolwatch/internal/notify"
	"github.com/songzhibin97/kolwatch/internal/notify/telegram"
	"github.com/songzhibin97/kolwatch/internal/policy"
	"github.com/songzhibin97/kolwatch/internal/registry"
	"github.com/songzhibin97/kolwatch/internal/registry/file"
	"github.com/songzhibin97/kolwatch/internal/registry/postgres"
	"github.com/songzhibin97/kolwatch/internal/registry/redis"
	"github.com/songzhibin97/kolwatch/internal/scheduler"
)

// app 持有启动时构建的全部组件
type app struct {
	registry  registry.Registry
	fetcher   feed.Fetcher
	scheduler *scheduler.Scheduler
	closers   []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn("failed to close component", "err", err)
		}
	}
}

func openRegistry(ctx context.Context, cfg configs.RegistryConfig) (registry.Registry, io.Closer, error) {
	switch cfg.Driver {
	case "postgres":
		r, err := postgres.NewPostgresRegistry(ctx, cfg.ConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres registry: %w", err)
		}
		return r, r, nil
	case "redis":
		r, err := redis.NewRedisRegistry(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis registry: %w", err)
		}
		return r, r, nil
	case "file":
		r, err := file.NewFileRegistry(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file registry: %w", err)
		}
		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry driver %q", cfg.Driver)
	}
}

// newAnalyzer returns nil when no model credentials are configured.
func newAnalyzer(ctx context.Context, cfg configs.AIConfig) (ai.Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case "gemini":
		analyzer, err := gemini.NewGeminiAnalyzer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return analyzer, nil
	case "openai", "":
		return openai.NewOpenAIAnalyzer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func newVerifier(cfg *configs.Config) market.Verifier {
	var lister market.Lister
	if cfg.Market.CheckBinance {
		lister = binance.NewListingChecker(cfg.Market.QuoteAsset, time.Hour)
	}

	return market.NewMultiSourceVerifier(
		[]market.PairSource{dexscreener.NewDexScreenerSource(cfg.Market.BaseURL)},
		lister,
		configs.ParseDuration(cfg.Timeouts.Market, 15*time.Second),
		log,
	)
}

func newApp(ctx context.Context, cfg *configs.Config) (*app, error) {
	reg, closer, err := openRegistry(ctx, cfg.Registry)
	if err != nil {
		return nil, err
	}
	a := &app{registry: reg, closers: []io.Closer{closer}}

	log.Debug("init registry", "driver", cfg.Registry.Driver)

	fetcher := twitter.NewTwitterFetcher(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.RequestsPerSecond, cfg.Feed.Burst)

	a.fetcher = fetcher

	log.Debug("init fetcher")

	analyzer, err := newAnalyzer(ctx, cfg.AIConfig)
	if err != nil {
		a.Close()
		return nil, err
	}
	extractor := extract.NewDefaultChain(log, analyzer, configs.ParseDuration(cfg.Timeouts.Model, 60*time.Second))

	log.Debug("init extractor", "provider", cfg.AIConfig.Provider, "model_enabled", analyzer != nil)

	var notifier notify.Notifier = telegram.NewTelegramNotifier(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, log)

	a.scheduler = scheduler.New(
		scheduler.Config{
			Interval:        cfg.Interval(),
			Concurrency:     cfg.Scheduler.Concurrency,
			FeedTimeout:     configs.ParseDuration(cfg.Timeouts.Feed, 30*time.Second),
			NotifyTimeout:   configs.ParseDuration(cfg.Timeouts.Notify, 15*time.Second),
			ChannelID:       cfg.Telegram.ChannelID,
			BuyLinkTemplate: cfg.Telegram.BuyLinkTemplate,
		},
		reg,
		fetcher,
		extractor,
		policy.NewNativeAssetPolicy(cfg.Policy.NativeSymbols),
		newVerifier(cfg),
		notifier,
		log,
	)

	log.Debug("init scheduler")
	return a, nil
}
