package heuristic

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mr-tron/base58"

	"github.com/songzhibin97/kolwatch/internal/models"
)

const (
	ChainEthereum = "ethereum"
	ChainSolana   = "solana"
)

var (
	// 有顺序，"$" 放最后以免 "TICKER:$FOO" 被拆错
	tickerMarkers = []string{"TICKER:", "TOKEN:", "SYMBOL:", "$"}

	tokenSuffixes = map[string]struct{}{
		"COIN": {}, "TOKEN": {}, "INU": {}, "SWAP": {}, "DAO": {},
		"PROTOCOL": {}, "FINANCE": {}, "FI": {}, "NETWORK": {},
		"CHAIN": {}, "AI": {}, "ETH": {}, "SOL": {}, "VERSE": {},
	}

	// 从长到短，保证 "FINANCE" 先于 "FI" 匹配
	suffixesByLength = []string{
		"PROTOCOL", "FINANCE", "NETWORK",
		"CHAIN", "TOKEN", "VERSE",
		"COIN", "SWAP",
		"INU", "DAO", "ETH", "SOL",
		"FI", "AI",
	}

	commonWords = map[string]struct{}{
		"THE": {}, "AND": {}, "FOR": {}, "NEW": {}, "NOW": {}, "ALL": {}, "GET": {},
	}

	// 以后缀结尾但不是代币名的常见词
	genericTerms = map[string]struct{}{
		"BITCOIN": {}, "ALTCOIN": {}, "MEMECOIN": {}, "STABLECOIN": {}, "SHITCOIN": {},
		"BLOCKCHAIN": {}, "ONCHAIN": {}, "OFFCHAIN": {}, "CROSSCHAIN": {},
		"DEFI": {}, "CEFI": {}, "OPENAI": {}, "UNISWAP": {},
	}

	numericPattern = regexp.MustCompile(`^\d+(\.\d+)?[KMB]?$`)

	contractPatterns = []struct {
		chain   string
		pattern *regexp.Regexp
		valid   func(string) bool
	}{
		{ChainEthereum, regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`), nil},
		{ChainSolana, regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`), isSolanaAddress},
	}
)

// Scan runs the deterministic ticker and contract rules over text.
// The returned mention is empty when nothing matched.
func Scan(text string) models.CandidateMention {
	mention := models.CandidateMention{
		Ticker:     FindTicker(text),
		Summary:    text,
		SourceTier: models.TierHeuristic,
	}
	mention.Contract, mention.Chain = FindContract(text)
	return mention
}

// FindTicker returns the first ticker candidate in text, upper-cased, or "".
func FindTicker(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		upper := strings.ToUpper(word)
		next := ""
		if i+1 < len(words) {
			next = words[i+1]
		}

		if marker, ok := markerIn(upper); ok {
			source := word
			cleaned := clean(strings.Replace(upper, marker, "", 1))
			if cleaned == "" && marker != "$" {
				source = next
				cleaned = clean(strings.ToUpper(next))
			}
			if tickerLike(cleaned) && !isAddress(source, cleaned) {
				return cleaned
			}
			continue
		}

		if next != "" {
			if _, ok := tokenSuffixes[clean(strings.ToUpper(next))]; ok {
				cleaned := clean(upper)
				_, common := commonWords[cleaned]
				if !common && tickerLike(cleaned) && !isAddress(word, cleaned) {
					return cleaned
				}
			}
		}

		if stem := suffixStem(word); stem != "" {
			return stem
		}
	}
	return ""
}

// FindContract returns the first contract address in chain priority order, with its chain family.
func FindContract(text string) (string, string) {
	for _, cp := range contractPatterns {
		for _, match := range cp.pattern.FindAllString(text, -1) {
			if cp.valid == nil || cp.valid(match) {
				return match, cp.chain
			}
		}
	}
	return "", ""
}

// ChainOf classifies an address found by other means, e.g. returned by a model.
func ChainOf(address string) string {
	address = strings.TrimSpace(address)
	for _, cp := range contractPatterns {
		if cp.pattern.FindString(address) == address && (cp.valid == nil || cp.valid(address)) {
			return cp.chain
		}
	}
	return ""
}

func markerIn(upper string) (string, bool) {
	for _, marker := range tickerMarkers {
		if strings.Contains(upper, marker) {
			return marker, true
		}
	}
	return "", false
}

// suffixStem handles shouted names like BARCOIN.
func suffixStem(word string) string {
	token := clean(word)
	if token == "" || token != strings.ToUpper(token) || !isAlnum(token) || !hasLetter(token) {
		return ""
	}
	if _, ok := genericTerms[token]; ok {
		return ""
	}

	for _, suffix := range suffixesByLength {
		stem, ok := strings.CutSuffix(token, suffix)
		if ok && len(stem) >= 2 && hasLetter(stem) {
			return stem
		}
	}
	return ""
}

func clean(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tickerLike rejects amounts such as 5000, 5K, 1,250.50 and 10-20K.
func tickerLike(cleaned string) bool {
	if cleaned == "" || !hasLetter(cleaned) {
		return false
	}
	for _, part := range strings.Split(strings.ReplaceAll(cleaned, ",", ""), "-") {
		if !numericPattern.MatchString(part) {
			return true
		}
	}
	return false
}

// isAddress reports whether cleaned is just the upper-cased contract address found in word.
func isAddress(word, cleaned string) bool {
	addr, _ := FindContract(word)
	return addr != "" && strings.EqualFold(addr, cleaned)
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func isSolanaAddress(s string) bool {
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == 32
}
