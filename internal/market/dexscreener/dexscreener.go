package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/kolwatch/internal/models"
	"github.com/songzhibin97/kolwatch/internal/utils/request"
)

const defaultBaseURL = "https://api.dexscreener.com"

type DexScreenerSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewDexScreenerSource(baseURL string) *DexScreenerSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &DexScreenerSource{
		baseURL:    baseURL,
		httpClient: request.New(15 * time.Second),
	}
}

func (d *DexScreenerSource) Name() string {
	return "dexscreener"
}

type searchResponse struct {
	Pairs []pair `json:"pairs"`
}

type token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type pair struct {
	ChainID     string             `json:"chainId"`
	DexID       string             `json:"dexId"`
	URL         string             `json:"url"`
	PairAddress string             `json:"pairAddress"`
	BaseToken   token              `json:"baseToken"`
	FDV         float64            `json:"fdv"`
	Volume      map[string]float64 `json:"volume"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // 毫秒
	Info          *struct {
		Websites []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

// Search implements PairSource interface
func (d *DexScreenerSource) Search(ctx context.Context, query string) ([]models.TradingPair, error) {
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(d.baseURL + "/latest/dex/search")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", models.ErrTransientUpstream, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", models.ErrTransientUpstream, resp.StatusCode())
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	pairs := make([]models.TradingPair, 0, len(result.Pairs))
	for _, p := range result.Pairs {
		pairs = append(pairs, p.toModel())
	}
	return pairs, nil
}

func (p pair) toModel() models.TradingPair {
	tp := models.TradingPair{
		ChainID:      p.ChainID,
		DexID:        p.DexID,
		PairAddress:  p.PairAddress,
		BaseSymbol:   p.BaseToken.Symbol,
		BaseName:     p.BaseToken.Name,
		BaseAddress:  p.BaseToken.Address,
		FDV:          p.FDV,
		LiquidityUSD: p.Liquidity.USD,
		Volume:       p.Volume,
		URL:          p.URL,
	}
	if p.PairCreatedAt > 0 {
		tp.PairCreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}

	if p.Info != nil {
		for _, s := range p.Info.Socials {
			tp.SocialLinks = append(tp.SocialLinks, models.SocialLink{Type: s.Type, URL: s.URL})
		}
		for _, w := range p.Info.Websites {
			tp.SocialLinks = append(tp.SocialLinks, models.SocialLink{Type: "website", URL: w.URL})
		}
	}
	return tp
}
