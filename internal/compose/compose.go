package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/kolwatch/internal/models"
)

const dexScreenerChartURL = "https://dexscreener.com"

// Input 组装通知所需的全部数据，Now 由调用方提供以保证输出确定
type Input struct {
	Handle          string
	Post            *models.Post
	Mention         models.CandidateMention
	Pair            *models.TradingPair // nil 表示行情源未找到
	Now             time.Time
	BuyLinkTemplate string // {address} 会被替换为合约地址
}

// Compose builds the notification. It performs no I/O and identical input yields identical output.
func Compose(in Input) models.NotificationEvent {
	summary := in.Mention.Summary
	postLink := ""
	if in.Post != nil {
		postLink = in.Post.Permalink
		if !models.Present(summary) {
			summary = in.Post.Text
		}
	}

	info := tokenInfo(in)
	event := models.NotificationEvent{
		MentionedBy: in.Handle,
		Summary:     summary,
		PostLink:    postLink,
		TokenInfo:   info,
	}
	event.Message = render(event, in.Now)
	return event
}

func tokenInfo(in Input) *models.TokenInfo {
	var info models.TokenInfo

	if p := in.Pair; p != nil {
		info = models.TokenInfo{
			Chain:         p.ChainID,
			Name:          p.BaseName,
			Symbol:        p.BaseSymbol,
			Address:       p.BaseAddress,
			FDV:           p.FDV,
			LiquidityUSD:  p.LiquidityUSD,
			Volume24h:     p.Volume["h24"],
			PairCreatedAt: p.PairCreatedAt,
			ChartLink:     p.URL,
			ListedOnCEX:   p.ListedOnCEX,
		}
		if info.Name == "" {
			info.Name = info.Symbol
		}
		if len(p.SocialLinks) > 0 {
			info.SocialLink = p.SocialLinks[0].URL
		}
	} else {
		// 未找到交易对时使用识别结果，行情字段为零
		info = models.TokenInfo{
			Chain:  in.Mention.Chain,
			Name:   in.Mention.CleanTicker(),
			Symbol: in.Mention.CleanTicker(),
		}
		if in.Mention.HasContract() {
			info.Address = strings.TrimSpace(in.Mention.Contract)
		}
	}

	if info.ChartLink == "" && info.Chain != "" && info.Address != "" {
		info.ChartLink = fmt.Sprintf("%s/%s/%s", dexScreenerChartURL, info.Chain, info.Address)
	}
	if in.BuyLinkTemplate != "" && info.Address != "" {
		info.BuyLink = strings.ReplaceAll(in.BuyLinkTemplate, "{address}", info.Address)
	}

	return &info
}

func render(event models.NotificationEvent, now time.Time) string {
	info := event.TokenInfo
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("🔔 *New Token Mention*")
	line("👤 Mentioned by: @%s", Escape(event.MentionedBy))
	line("")
	line("📝 *Summary*")
	line("%s", Escape(event.Summary))
	line("")
	line("🪙 *Token Info*")
	if info.Name != "" {
		line("• Name: %s", Escape(info.Name))
	}
	if info.Symbol != "" {
		line("• Symbol: $%s", Escape(info.Symbol))
	}
	if info.Chain != "" {
		line("• Chain: %s", Escape(info.Chain))
	}
	if info.Address != "" {
		line("• Contract: `%s`", info.Address)
	}
	if info.FDV > 0 {
		line("• FDV: $%s", FormatNumber(info.FDV))
	}
	if info.LiquidityUSD > 0 {
		line("• Liquidity: $%s", FormatNumber(info.LiquidityUSD))
	}
	if info.Volume24h > 0 {
		line("• 24h Volume: $%s", FormatNumber(info.Volume24h))
	}
	if !info.PairCreatedAt.IsZero() {
		line("• Age: %s", FormatAge(info.PairCreatedAt, now))
	}
	if info.ListedOnCEX {
		line("• Binance: listed")
	}
	line("")
	line("🔗 *Links*")
	if event.PostLink != "" {
		line("• [Post](%s)", event.PostLink)
	}
	if info.SocialLink != "" {
		line("• [Social](%s)", info.SocialLink)
	}
	if info.ChartLink != "" {
		line("• [Chart](%s)", info.ChartLink)
	}
	if info.BuyLink != "" {
		line("• [Buy Now](%s)", info.BuyLink)
	}

	return strings.TrimSpace(b.String())
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`, "`", "\\`",
)

// Escape escapes Telegram Markdown reserved characters.
func Escape(s string) string {
	return markdownEscaper.Replace(s)
}

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatNumber renders n with a K/M/B suffix and two decimals. Zero renders as "0".
func FormatNumber(n float64) string {
	if n == 0 {
		return "0"
	}

	d := decimal.NewFromFloat(n)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		return d.Div(billion).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}

// FormatAge renders the largest whole unit elapsed between created and now.
func FormatAge(created, now time.Time) string {
	diff := now.Sub(created)
	if diff < 0 {
		diff = 0
	}

	minutes := int64(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%d days", days)
	case hours > 0:
		return fmt.Sprintf("%d hours", hours)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}
