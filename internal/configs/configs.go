package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/songzhibin97/kolwatch/internal/models"
)

type Config struct {
	// 基础配置
	RefreshInterval string `json:"refresh_interval" yaml:"refresh_interval"` // 轮询间隔
	LogLevel        string `json:"log_level" yaml:"log_level"`               // debug/info/warn/error
	Proxy           string `json:"proxy" yaml:"proxy"`                       // HTTP(S) 代理

	Registry  RegistryConfig  `json:"registry" yaml:"registry"`
	Feed      FeedConfig      `json:"feed" yaml:"feed"`
	AIConfig  AIConfig        `json:"ai_config" yaml:"ai_config"`
	Market    MarketConfig    `json:"market" yaml:"market"`
	Telegram  TelegramConfig  `json:"telegram" yaml:"telegram"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Timeouts  TimeoutConfig   `json:"timeouts" yaml:"timeouts"`
	Policy    PolicyConfig    `json:"policy" yaml:"policy"`
	Admin     AdminConfig     `json:"admin" yaml:"admin"`
}

type RegistryConfig struct {
	Driver    string `json:"driver" yaml:"driver"`         // postgres/file/redis
	ConnStr   string `json:"conn_str" yaml:"conn_str"`     // postgres 连接字符串
	FilePath  string `json:"file_path" yaml:"file_path"`   // file 驱动数据文件
	RedisURL  string `json:"redis_url" yaml:"redis_url"`   // redis://...
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"` // redis key 前缀
}

type FeedConfig struct {
	BaseURL           string  `json:"base_url" yaml:"base_url"`
	APIKey            string  `json:"api_key" yaml:"api_key"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"` // 上游限流
	Burst             int     `json:"burst" yaml:"burst"`
}

type AIConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`         // openai/gemini
	APIKey      string  `json:"api_key" yaml:"api_key"`           // AI服务API密钥
	BaseURL     string  `json:"base_url" yaml:"base_url"`         // OpenAI 兼容接口地址
	ModelType   string  `json:"model_type" yaml:"model_type"`     // 文本模型
	VisionModel string  `json:"vision_model" yaml:"vision_model"` // 图片模型，空则复用文本模型
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

type MarketConfig struct {
	BaseURL      string `json:"base_url" yaml:"base_url"`
	CheckBinance bool   `json:"check_binance" yaml:"check_binance"` // 是否查询币安上架情况
	QuoteAsset   string `json:"quote_asset" yaml:"quote_asset"`
}

type TelegramConfig struct {
	BaseURL         string `json:"base_url" yaml:"base_url"`
	BotToken        string `json:"bot_token" yaml:"bot_token"`
	ChannelID       string `json:"channel_id" yaml:"channel_id"`
	BuyLinkTemplate string `json:"buy_link_template" yaml:"buy_link_template"` // {address} 会被替换
}

type SchedulerConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

type TimeoutConfig struct {
	Feed   string `json:"feed" yaml:"feed"`
	Model  string `json:"model" yaml:"model"`
	Market string `json:"market" yaml:"market"`
	Notify string `json:"notify" yaml:"notify"`
}

type PolicyConfig struct {
	NativeSymbols []string `json:"native_symbols" yaml:"native_symbols"` // 链原生币，不带合约时不通知
}

type AdminConfig struct {
	Addr string `json:"addr" yaml:"addr"` // 为空则不启动管理接口
}

// Needs selects which sections Validate checks.
type Needs uint8

const (
	NeedRegistry Needs = 1 << iota
	NeedFeed
	NeedModel
	NeedNotifier

	NeedAll = NeedRegistry | NeedFeed | NeedModel | NeedNotifier
)

// Load reads a JSON or YAML config file, applies .env and environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(raw, config)
		default:
			err = json.Unmarshal(raw, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Registry.ConnStr, "KOLWATCH_DATABASE_URL", "DATABASE_URL")
	setString(&c.Registry.RedisURL, "KOLWATCH_REDIS_URL")
	setString(&c.Feed.APIKey, "KOLWATCH_FEED_API_KEY", "TWITTER_API_KEY")
	setString(&c.AIConfig.APIKey, "KOLWATCH_AI_API_KEY", "XAI_API_KEY", "GEMINI_API_KEY")
	setString(&c.Telegram.BotToken, "KOLWATCH_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChannelID, "KOLWATCH_TELEGRAM_CHANNEL_ID", "TELEGRAM_CHANNEL_ID")
	setString(&c.Proxy, "KOLWATCH_PROXY")

	if v := os.Getenv("KOLWATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.Concurrency = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.RefreshInterval == "" {
		c.RefreshInterval = "5m"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Registry.Driver == "" {
		c.Registry.Driver = "file"
	}
	if c.Registry.FilePath == "" {
		c.Registry.FilePath = filepath.Join("data", "kols.json")
	}
	if c.Registry.KeyPrefix == "" {
		c.Registry.KeyPrefix = "kolwatch"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://api.twitterapi.io"
	}
	if c.Feed.RequestsPerSecond <= 0 {
		c.Feed.RequestsPerSecond = 1
	}
	if c.Feed.Burst <= 0 {
		c.Feed.Burst = 1
	}
	if c.AIConfig.Provider == "" {
		c.AIConfig.Provider = "openai"
	}
	if c.AIConfig.Provider == "openai" && c.AIConfig.BaseURL == "" {
		c.AIConfig.BaseURL = "https://api.x.ai/v1"
	}
	if c.AIConfig.MaxTokens <= 0 {
		c.AIConfig.MaxTokens = 500
	}
	if c.AIConfig.Temperature <= 0 {
		c.AIConfig.Temperature = 0.3
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://api.dexscreener.com"
	}
	if c.Market.QuoteAsset == "" {
		c.Market.QuoteAsset = "USDT"
	}
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = "https://api.telegram.org"
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = 4
	}
	if len(c.Policy.NativeSymbols) == 0 {
		c.Policy.NativeSymbols = []string{"SOL", "ETH", "BTC", "BNB"}
	}
}

// Validate returns an error wrapping models.ErrConfiguration that lists every missing setting.
func (c *Config) Validate(needs Needs) error {
	var missing []string

	if needs&NeedRegistry != 0 {
		switch c.Registry.Driver {
		case "postgres":
			if c.Registry.ConnStr == "" {
				missing = append(missing, "registry.conn_str")
			}
		case "redis":
			if c.Registry.RedisURL == "" {
				missing = append(missing, "registry.redis_url")
			}
		case "file":
			if c.Registry.FilePath == "" {
				missing = append(missing, "registry.file_path")
			}
		default:
			missing = append(missing, fmt.Sprintf("registry.driver (unknown %q)", c.Registry.Driver))
		}
	}
	if needs&NeedFeed != 0 && c.Feed.APIKey == "" {
		missing = append(missing, "feed.api_key")
	}
	if needs&NeedModel != 0 {
		if c.AIConfig.APIKey == "" {
			missing = append(missing, "ai_config.api_key")
		}
		if c.AIConfig.Provider != "openai" && c.AIConfig.Provider != "gemini" {
			missing = append(missing, fmt.Sprintf("ai_config.provider (unknown %q)", c.AIConfig.Provider))
		}
	}
	if needs&NeedNotifier != 0 {
		if c.Telegram.BotToken == "" {
			missing = append(missing, "telegram.bot_token")
		}
		if c.Telegram.ChannelID == "" {
			missing = append(missing, "telegram.channel_id")
		}
	}
	if _, err := time.ParseDuration(c.RefreshInterval); err != nil {
		missing = append(missing, "refresh_interval (invalid duration)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or invalid %s", models.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Interval returns the polling interval.
func (c *Config) Interval() time.Duration {
	return ParseDuration(c.RefreshInterval, 5*time.Minute)
}

// ParseDuration parses s, falling back to def on empty or invalid input.
func ParseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
