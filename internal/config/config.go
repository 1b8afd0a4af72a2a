package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Portal   PortalConfig   `yaml:"portal"`
	Mpesa    MpesaConfig    `yaml:"mpesa"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/portal.yaml"
	}

	// Ensure absolute path
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.CountryCode == "" {
		c.Service.CountryCode = "254"
	}
	if c.Portal.PollIntervalMS <= 0 {
		c.Portal.PollIntervalMS = 3000
	}
	if c.Portal.MaxPollAttempts <= 0 {
		c.Portal.MaxPollAttempts = 30
	}
	if c.Portal.RequestTimeoutMS <= 0 {
		c.Portal.RequestTimeoutMS = 15000
	}
	if c.Mpesa.Driver == "" {
		c.Mpesa.Driver = "sandbox"
	}
}
