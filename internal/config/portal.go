package config

import "time"

// PortalConfig configures the captive-portal client side of the flow.
type PortalConfig struct {
	BaseURL          string `yaml:"base_url"`
	RequestTimeoutMS int    `yaml:"request_timeout_ms"`
	PollIntervalMS   int    `yaml:"poll_interval_ms"`
	MaxPollAttempts  int    `yaml:"max_poll_attempts"`
}

func (c *PortalConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c *PortalConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
