package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/songzhibin97/kolwatch/internal/compose"
	"github.com/songzhibin97/kolwatch/internal/extract"
	"github.com/songzhibin97/kolwatch/internal/feed"
	"github.com/songzhibin97/kolwatch/internal/market"
	"github.com/songzhibin97/kolwatch/internal/metrics"
	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/notify"
	"github.com/songzhibin97/kolwatch/internal/policy"
	"github.com/songzhibin97/kolwatch/internal/registry"
)

// Config holds scheduler configuration.
type Config struct {
	Interval        time.Duration // Poll interval (default: 5m)
	Concurrency     int           // Max accounts processed at once (default: 4)
	FeedTimeout     time.Duration // Per-fetch timeout (default: 30s)
	NotifyTimeout   time.Duration // Per-dispatch timeout (default: 15s)
	ChannelID       string
	BuyLinkTemplate string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Minute,
		Concurrency:   4,
		FeedTimeout:   30 * time.Second,
		NotifyTimeout: 15 * time.Second,
	}
}

// TickReport summarizes one poll cycle.
type TickReport struct {
	Accounts int           `json:"accounts"`
	Fetched  int           `json:"fetched"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Notified int           `json:"notified"`
	Duration time.Duration `json:"duration"`
}

// Evaluation is the outcome of running one post through the pipeline without dispatching.
type Evaluation struct {
	Mention  models.CandidateMention   `json:"mention"`
	Decision policy.Decision           `json:"decision"`
	Pair     *models.TradingPair       `json:"pair,omitempty"`
	Event    *models.NotificationEvent `json:"event,omitempty"`
}

// Scheduler periodically polls every tracked account and notifies on new token mentions.
type Scheduler struct {
	cfg       Config
	registry  registry.Registry
	fetcher   feed.Fetcher
	extractor extract.Extractor
	policy    policy.Suppressor
	verifier  market.Verifier
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time

	// 保证同一时间只有一个周期在执行
	tickMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Scheduler.
func New(
	cfg Config,
	reg registry.Registry,
	fetcher feed.Fetcher,
	extractor extract.Extractor,
	suppressor policy.Suppressor,
	verifier market.Verifier,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = def.FeedTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}

	return &Scheduler{
		cfg:       cfg,
		registry:  reg,
		fetcher:   fetcher,
		extractor: extractor,
		policy:    suppressor,
		verifier:  verifier,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the polling loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(ctx)
	}()

	s.logger.Info("scheduler started",
		"interval", s.cfg.Interval,
		"concurrency", s.cfg.Concurrency,
	)
	return nil
}

// Stop cancels the loop and waits for the running cycle to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run polls immediately, then on every interval until ctx is done.
// A cycle that overruns the interval drops the missed trigger.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("poll cycle failed", "err", err)
	}
}

// RunOnce executes a single poll cycle. It fails only when the registry cannot be listed.
func (s *Scheduler) RunOnce(ctx context.Context) (TickReport, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := s.now()

	listStart := time.Now()
	accounts, err := s.registry.List(ctx)
	metrics.RecordStage(metrics.StageRegistry, time.Since(listStart).Seconds(), err)
	if err != nil {
		return TickReport{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	var fetched, skipped, failed, notified atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			outcome, gotPost := s.processAccount(ctx, account)
			metrics.RecordOutcome(outcome)

			if gotPost {
				fetched.Add(1)
			}
			switch outcome {
			case metrics.OutcomeFailed:
				failed.Add(1)
			case metrics.OutcomeSkipped:
				skipped.Add(1)
			case metrics.OutcomeNotified:
				notified.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := TickReport{
		Accounts: len(accounts),
		Fetched:  int(fetched.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Notified: int(notified.Load()),
		Duration: s.now().Sub(start),
	}
	metrics.RecordTick(report.Accounts, report.Duration.Seconds())

	s.logger.Info("poll cycle complete",
		"accounts", report.Accounts,
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"notified", report.Notified,
		"duration", report.Duration,
	)
	return report, nil
}

// processAccount runs fetch, dedup, extract, verify, compose and dispatch for one account.
// Errors are logged and never escape. gotPost reports whether a post was fetched.
func (s *Scheduler) processAccount(ctx context.Context, account models.TrackedAccount) (outcome string, gotPost bool) {
	logger := s.logger.With("handle", account.Handle, "account", account.ID)

	post, err := s.fetchLatest(ctx, account.Handle)
	if err != nil {
		logger.Warn("failed to fetch latest post", "err", err)
		return metrics.OutcomeFailed, false
	}
	if post == nil {
		logger.Debug("no posts")
		return metrics.OutcomeSkipped, false
	}

	if account.HasCursor() && account.LastSeenPostID == post.ID {
		logger.Debug("post already processed", "post", post.ID)
		return metrics.OutcomeSkipped, true
	}

	// 先更新游标，下游失败不会导致重复处理
	ok, err := s.registry.UpdateCursor(ctx, account.ID, post.ID)
	if err != nil {
		logger.Error("failed to update cursor", "post", post.ID, "err", err)
		return metrics.OutcomeFailed, true
	}
	if !ok {
		logger.Info("account removed during cycle", "post", post.ID)
		return metrics.OutcomeSkipped, true
	}

	eval, err := s.Evaluate(ctx, account.Handle, post)
	if err != nil {
		logger.Warn("failed to evaluate post", "post", post.ID, "err", err)
		return metrics.OutcomeFailed, true
	}
	if eval.Event == nil {
		if eval.Mention.Actionable() {
			logger.Info("mention suppressed", "post", post.ID, "ticker", eval.Mention.Ticker, "reason", eval.Decision.Reason)
			return metrics.OutcomeSuppressed, true
		}
		return metrics.OutcomeNoMention, true
	}

	if err := s.dispatch(ctx, eval.Event.Message); err != nil {
		logger.Error("failed to dispatch notification", "post", post.ID, "err", err)
		return metrics.OutcomeFailed, true
	}

	logger.Info("notification sent", "post", post.ID,
		"ticker", eval.Mention.Ticker, "contract", eval.Mention.Contract, "tier", eval.Mention.SourceTier)
	return metrics.OutcomeNotified, true
}

// Evaluate runs extraction, suppression, verification and composition for post.
// A nil Event means nothing should be sent.
func (s *Scheduler) Evaluate(ctx context.Context, handle string, post *models.Post) (Evaluation, error) {
	var eval Evaluation

	start := time.Now()
	mention, err := s.extractor.Extract(ctx, post)
	metrics.RecordStage(metrics.StageExtract, time.Since(start).Seconds(), err)
	if err != nil {
		return eval, fmt.Errorf("failed to extract mention: %w", err)
	}
	eval.Mention = mention
	if mention.Actionable() {
		metrics.RecordMention(string(mention.SourceTier))
	}

	eval.Decision = s.policy.Check(mention)
	if eval.Decision.Suppressed {
		return eval, nil
	}

	start = time.Now()
	pair, err := s.verifier.Verify(ctx, mention)
	metrics.RecordStage(metrics.StageVerify, time.Since(start).Seconds(), err)
	if err != nil {
		// 行情源失败时仍然通知，只是没有行情数据
		s.logger.Warn("failed to verify mention", "handle", handle, "post", post.ID, "err", err)
		pair = nil
	}
	eval.Pair = pair

	event := compose.Compose(compose.Input{
		Handle:          handle,
		Post:            post,
		Mention:         mention,
		Pair:            pair,
		Now:             s.now(),
		BuyLinkTemplate: s.cfg.BuyLinkTemplate,
	})
	eval.Event = &event

	return eval, nil
}

func (s *Scheduler) fetchLatest(ctx context.Context, handle string) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FeedTimeout)
	defer cancel()

	start := time.Now()
	post, err := s.fetcher.LatestPost(ctx, handle)
	metrics.RecordStage(metrics.StageFeed, time.Since(start).Seconds(), err)
	return post, err
}

func (s *Scheduler) dispatch(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	start := time.Now()
	err := s.notifier.Dispatch(ctx, s.cfg.ChannelID, message)
	metrics.RecordStage(metrics.StageNotify, time.Since(start).Seconds(), err)
	return err
}
