// Package normalize implements per-venue symbol normalization: mapping
// a venue's native symbol spelling to the canonical types.Symbol form
// and back. Grounded on the teacher's per-exchange SymbolNormalizer
// implementations, generalized to a single suffix-priority driven
// normalizer configurable per venue rather than one hardcoded type per
// exchange.
package normalize

import (
	"strings"

	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

// Normalizer converts between a venue's native symbol spelling and the
// canonical types.Symbol form.
type Normalizer interface {
	// ToCanonical converts a venue-native symbol into its canonical form.
	ToCanonical(venueSymbol string) (types.Symbol, error)
	// FromCanonical converts a canonical symbol into the venue's native
	// spelling.
	FromCanonical(sym types.Symbol) string
}

// SuffixNormalizer is a Normalizer driven by a suffix-priority quote
// list and a concatenation style: venues either concatenate base+quote
// directly (BTCUSDT) or join them with a separator (BTC-USDT,
// BTC_USDT). Settle, when Perpetual is true, is always assumed equal to
// Quote, matching every perpetual venue in this module's scope.
type SuffixNormalizer struct {
	VenueID       string
	QuotePriority []string // longest/most-specific quote assets first
	Separator     string   // "" for concatenated venues
	Perpetual     bool
}

// NewSuffixNormalizer constructs a SuffixNormalizer, defaulting
// QuotePriority to the common set used across the corpus's venues when
// nil.
func NewSuffixNormalizer(venueID string, quotePriority []string, separator string, perpetual bool) *SuffixNormalizer {
	if quotePriority == nil {
		quotePriority = []string{"USDT", "USDC", "BUSD", "USD", "BTC", "ETH", "BNB"}
	}
	return &SuffixNormalizer{VenueID: venueID, QuotePriority: quotePriority, Separator: separator, Perpetual: perpetual}
}

func (n *SuffixNormalizer) ToCanonical(venueSymbol string) (types.Symbol, error) {
	upper := strings.ToUpper(venueSymbol)

	var base, quote string
	if n.Separator != "" && strings.Contains(upper, n.Separator) {
		parts := strings.SplitN(upper, n.Separator, 2)
		base, quote = parts[0], parts[1]
	} else {
		for _, q := range n.QuotePriority {
			if strings.HasSuffix(upper, q) && len(upper) > len(q) {
				base, quote = strings.TrimSuffix(upper, q), q
				break
			}
		}
	}
	if base == "" || quote == "" {
		return types.Symbol{}, xerrors.New(xerrors.InvalidSymbol, n.VenueID, "cannot normalize venue symbol: "+venueSymbol)
	}

	sym := types.Symbol{Base: base, Quote: quote}
	if n.Perpetual {
		sym.Settle = quote
	}
	return sym, nil
}

func (n *SuffixNormalizer) FromCanonical(sym types.Symbol) string {
	if n.Separator != "" {
		return sym.Base + n.Separator + sym.Quote
	}
	return sym.Base + sym.Quote
}
