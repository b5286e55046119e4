package market

import (
	"sort"
	"strings"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Query picks the search term for a mention. A contract always beats a ticker.
func Query(mention models.CandidateMention) string {
	if mention.HasContract() {
		return strings.TrimSpace(mention.Contract)
	}
	return mention.CleanTicker()
}

// RankPairs orders pairs by FDV then liquidity, both descending. Ties keep the source order.
func RankPairs(pairs []models.TradingPair) []models.TradingPair {
	ranked := make([]models.TradingPair, len(pairs))
	copy(ranked, pairs)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FDV != ranked[j].FDV {
			return ranked[i].FDV > ranked[j].FDV
		}
		return ranked[i].LiquidityUSD > ranked[j].LiquidityUSD
	})
	return ranked
}

// Best returns the top ranked pair or nil.
func Best(pairs []models.TradingPair) *models.TradingPair {
	if len(pairs) == 0 {
		return nil
	}
	best := RankPairs(pairs)[0]
	return &best
}
