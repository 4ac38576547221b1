package exchange

import (
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper unmarshals the process-agnostic fields of Config
// (venue id, display name, base URL, testnet/debug flags, HTTP timeout,
// market cache TTL) from a caller-supplied viper.Viper instance. The
// library never opens a config file itself; callers own binding viper to
// whatever source (file, env, flags) they prefer, matching the teacher's
// use of viper only as an unmarshal target, never a file-reader owned by
// this package.
func LoadConfigFromViper(v *viper.Viper) Config {
	cfg := Config{
		VenueID:     v.GetString("venue_id"),
		DisplayName: v.GetString("display_name"),
		BaseURL:     v.GetString("base_url"),
		TestNet:     v.GetBool("testnet"),
		Debug:       v.GetBool("debug"),
	}
	if ms := v.GetInt("http_timeout_ms"); ms > 0 {
		cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
	}
	if ms := v.GetInt("market_cache_ttl_ms"); ms > 0 {
		cfg.MarketCacheTTL = time.Duration(ms) * time.Millisecond
	}
	return cfg
}
