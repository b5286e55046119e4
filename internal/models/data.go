package models

import (
	"strings"
	"time"
)

// Sentinel 模型输出中表示字段缺失的占位值
const Sentinel = "NO"

// SourceTier 识别结果来源层级
type SourceTier string

const (
	TierHeuristic   SourceTier = "heuristic"
	TierModelText   SourceTier = "model-text"
	TierModelVision SourceTier = "model-vision"
)

// TrackedAccount 被跟踪的KOL账号
type TrackedAccount struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle_name"`
	LastSeenPostID string    `json:"last_post_id,omitempty"` // 最近一次轮询检查过的帖子ID，空表示从未检查
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasCursor reports whether the account has been examined at least once.
func (a TrackedAccount) HasCursor() bool {
	return a.LastSeenPostID != ""
}

// Post 单个周期内获取到的最新帖子，不做持久化
type Post struct {
	ID           string    `json:"id"`
	Permalink    string    `json:"permalink"`
	Text         string    `json:"text"`
	Images       []string  `json:"images"`
	AuthorHandle string    `json:"author_handle"`
	CreatedAt    time.Time `json:"created_at"`
}

// CandidateMention 从帖子中识别出的代币提及
type CandidateMention struct {
	Ticker     string     `json:"ticker,omitempty"`
	Contract   string     `json:"contract,omitempty"`
	Chain      string     `json:"chain,omitempty"`
	Summary    string     `json:"summary"`
	SourceTier SourceTier `json:"source_tier,omitempty"`
}

// Present reports whether v carries a value other than blank or the sentinel.
func Present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, Sentinel)
}

func (m CandidateMention) HasTicker() bool   { return Present(m.Ticker) }
func (m CandidateMention) HasContract() bool { return Present(m.Contract) }

// Actionable reports whether the mention names a ticker or a contract.
func (m CandidateMention) Actionable() bool {
	return m.HasTicker() || m.HasContract()
}

// CleanTicker returns the ticker without its leading "$".
func (m CandidateMention) CleanTicker() string {
	if !m.HasTicker() {
		return ""
	}
	return strings.TrimLeft(strings.TrimSpace(m.Ticker), "$")
}

// SocialLink 项目社交链接
type SocialLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TradingPair 行情源返回的交易对
type TradingPair struct {
	ChainID       string             `json:"chain_id"`
	DexID         string             `json:"dex_id"`
	PairAddress   string             `json:"pair_address"`
	BaseSymbol    string             `json:"base_symbol"`
	BaseName      string             `json:"base_name"`
	BaseAddress   string             `json:"base_address"`
	FDV           float64            `json:"fdv"`
	LiquidityUSD  float64            `json:"liquidity_usd"`
	Volume        map[string]float64 `json:"volume"` // m5, h1, h6, h24
	PairCreatedAt time.Time          `json:"pair_created_at"`
	URL           string             `json:"url"`
	SocialLinks   []SocialLink       `json:"social_links"`
	ListedOnCEX   bool               `json:"listed_on_cex"`
}

// TokenInfo 通知中展示的代币信息
type TokenInfo struct {
	Chain         string    `json:"chain,omitempty"`
	Name          string    `json:"name,omitempty"`
	Symbol        string    `json:"symbol,omitempty"`
	Address       string    `json:"address,omitempty"`
	SocialLink    string    `json:"social_link,omitempty"`
	FDV           float64   `json:"fdv"`
	LiquidityUSD  float64   `json:"liquidity_usd"`
	Volume24h     float64   `json:"volume_24h"`
	PairCreatedAt time.Time `json:"pair_created_at"`
	ChartLink     string    `json:"chart_link,omitempty"`
	BuyLink       string    `json:"buy_link,omitempty"`
	ListedOnCEX   bool      `json:"listed_on_cex"`
}

// NotificationEvent 交给通知通道的最终结果
type NotificationEvent struct {
	MentionedBy string     `json:"mentioned_by"`
	Summary     string     `json:"summary"`
	PostLink    string     `json:"post_link"`
	TokenInfo   *TokenInfo `json:"token_info,omitempty"`
	Message     string     `json:"message"`
}
