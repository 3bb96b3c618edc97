package config

import "time"

type ServiceConfig struct {
	Name                string     `yaml:"name"`
	Environment         string     `yaml:"environment"`
	Version             string     `yaml:"version"`
	ClientURL           string     `yaml:"client_url"`
	StripeSecretKey     string     `yaml:"stripe_secret_key"`
	StripeWebhookSecret string     `yaml:"stripe_webhook_secret"`
	Auth                AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	Development bool   `yaml:"development"`
}

// TrialConfig controls the window every new business record starts in.
type TrialConfig struct {
	Days     int      `yaml:"days"`
	Services []string `yaml:"services"`
}

func (c *TrialConfig) applyDefaults() {
	if c.Days <= 0 {
		c.Days = 90
	}
	if len(c.Services) == 0 {
		c.Services = []string{"basic_concierge"}
	}
}

// SweepConfig controls the in-process trial-expiry sweep.
type SweepConfig struct {
	Interval Duration `yaml:"interval"`
}

func (c *SweepConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = Duration(time.Hour)
	}
}
