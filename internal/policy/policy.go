package policy

import (
	"strings"
	"sync"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// Reason 不通知的原因
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonEmpty       Reason = "empty mention"
	ReasonNativeAsset Reason = "native currency without contract"
)

// Decision is the outcome of a suppression check.
type Decision struct {
	Suppressed bool   `json:"suppressed"`
	Reason     Reason `json:"reason,omitempty"`
}

// Suppressor decides whether a mention is worth verifying and notifying.
type Suppressor interface {
	Check(mention models.CandidateMention) Decision
}

// NativeAssetPolicy suppresses empty mentions and bare chain-native tickers.
type NativeAssetPolicy struct {
	mu      sync.RWMutex
	natives map[string]struct{}
}

func NewNativeAssetPolicy(nativeSymbols []string) *NativeAssetPolicy {
	p := &NativeAssetPolicy{}
	p.SetNativeSymbols(nativeSymbols)
	return p
}

// SetNativeSymbols replaces the native currency list.
func (p *NativeAssetPolicy) SetNativeSymbols(symbols []string) {
	natives := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = normalize(s)
		if s != "" {
			natives[s] = struct{}{}
		}
	}

	p.mu.Lock()
	p.natives = natives
	p.mu.Unlock()
}

// Check implements Suppressor interface
func (p *NativeAssetPolicy) Check(mention models.CandidateMention) Decision {
	if !mention.Actionable() {
		return Decision{Suppressed: true, Reason: ReasonEmpty}
	}

	if !mention.HasContract() {
		p.mu.RLock()
		_, native := p.natives[normalize(mention.Ticker)]
		p.mu.RUnlock()

		if native {
			return Decision{Suppressed: true, Reason: ReasonNativeAsset}
		}
	}

	return Decision{}
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimLeft(strings.TrimSpace(s), "$"))
}
