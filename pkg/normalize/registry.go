package normalize

// Registry maps venue ids to their Normalizer, mirroring the teacher's
// GetNormalizer(exchangeType) factory.
var Registry = map[string]Normalizer{
	"binance":     NewSuffixNormalizer("binance", nil, "", true),
	"bybit":       NewSuffixNormalizer("bybit", []string{"USDT", "USDC", "USD", "BTC", "ETH"}, "", true),
	"okx":         NewSuffixNormalizer("okx", nil, "-", true),
	"hyperliquid": NewSuffixNormalizer("hyperliquid", nil, "", true),
}

// For looks up a venue's Normalizer, or nil if the venue is unregistered.
func For(venueID string) Normalizer {
	return Registry[venueID]
}
