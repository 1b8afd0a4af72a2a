package config

import "time"

// MpesaConfig configures the mobile-money gateway.
type MpesaConfig struct {
	Driver         string `yaml:"driver"` // "daraja" or "sandbox"
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	ShortCode      string `yaml:"short_code"`
	Passkey        string `yaml:"passkey"`
	CallbackURL    string `yaml:"callback_url"`

	Sandbox SandboxConfig `yaml:"sandbox"`
}

// SandboxConfig controls the simulated gateway used outside production.
type SandboxConfig struct {
	Outcome string `yaml:"outcome"` // "completed" or "failed"
	DelayMS int    `yaml:"delay_ms"`
}

func (c *SandboxConfig) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}
