package exchange

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mexoms/perpunify/pkg/breaker"
	"github.com/mexoms/perpunify/pkg/metrics"
	"github.com/mexoms/perpunify/pkg/normalize"
	"github.com/mexoms/perpunify/pkg/ratelimit"
	"github.com/mexoms/perpunify/pkg/signing"
)

// Config is the caller-populated driver configuration contract of
// spec.md §6. The library never parses files or environment variables
// itself; see configload.go for the optional viper-based helper.
type Config struct {
	VenueID     string
	DisplayName string
	BaseURL     string
	TestNet     bool
	Debug       bool

	Signer     signing.Signer
	Normalizer normalize.Normalizer
	RateLimit  ratelimit.Config
	Breaker    breaker.Config

	HTTPTimeout time.Duration

	Observer metrics.Observer
	Logger   *logrus.Entry

	MarketCacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.Observer == nil {
		c.Observer = metrics.NoopObserver{}
	}
	if c.Logger == nil {
		c.Logger = logrus.WithField("venue", c.VenueID)
	}
	if c.MarketCacheTTL == 0 {
		c.MarketCacheTTL = 5 * time.Minute
	}
	return c
}
