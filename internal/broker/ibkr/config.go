// Package ibkr implements the Broker contract against an IBKR
// gateway. The wire transport is deliberately swappable: Client only
// depends on the Transport interface and the mappers, so tests (and
// future connectors) can substitute the HTTP gateway transport.
package ibkr

import (
	"strings"
	"time"

	"wheelhouse/internal/broker"
)

// Config carries the gateway connection settings.
type Config struct {
	// BaseURL of the gateway REST endpoint, e.g. "https://localhost:5000".
	BaseURL string

	TimeoutSeconds     int
	InsecureSkipVerify bool

	// Circuit breaker over Connect: after BreakerThreshold consecutive
	// failures the breaker opens for BreakerCooloff.
	BreakerThreshold int
	BreakerCooloff   time.Duration
}

func (c Config) withDefaults() Config {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.BreakerThreshold <= 0 {
		c.BreakerThreshold = 3
	}
	if c.BreakerCooloff <= 0 {
		c.BreakerCooloff = 30 * time.Second
	}
	return c
}

func (c Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return &broker.ConfigError{Reason: "ibkr base_url is empty"}
	}
	return nil
}
