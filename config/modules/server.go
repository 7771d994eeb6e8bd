package modules

import (
	"errors"
	"fmt"
	"net"
	"time"
)

type ServerConfig struct {
	BaseConfig
	// Listen defaults to 0.0.0.0:$PREDICTIVE_UNIT_SERVICE_PORT
	Listen             string          `yaml:"listen" json:"listen"`
	TimeoutRead        int64           `yaml:"timeout_read" json:"timeout_read" default:"60" split_words:"true"`
	TimeoutWrite       int64           `yaml:"timeout_write" json:"timeout_write" default:"60" split_words:"true"`
	MaxRequestBodySize int64           `yaml:"max_request_body_size" json:"max_request_body_size" default:"10485760" split_words:"true"`
	Validation         bool            `yaml:"validation" json:"validation" default:"true"`
	CORS               CORSConfig      `yaml:"cors" json:"cors"`
	RateLimit          RateLimitConfig `yaml:"rate_limit" json:"rate_limit" split_words:"true"`
	TLS                TLS             `yaml:"tls" json:"tls"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
			return fmt.Errorf("invalid listen '%s': %s", cfg.Listen, err)
		}
	}
	if cfg.TimeoutRead < 0 {
		return errors.New("timeout_read cannot be negative value")
	}
	if cfg.TimeoutWrite < 0 {
		return errors.New("timeout_write cannot be negative value")
	}
	if cfg.MaxRequestBodySize < 0 {
		return errors.New("max_request_body_size cannot be negative value")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate_limit: %w", err)
	}
	return nil
}

type CORSConfig struct {
	Enabled      bool     `yaml:"enabled" json:"enabled" default:"true"`
	// AllowOrigins defaults to any origin when empty
	AllowOrigins []string `yaml:"allow_origins" json:"allow_origins" split_words:"true"`
}

type RateLimitConfig struct {
	Quota  int `yaml:"quota" json:"quota" default:"0"`
	Period int `yaml:"period" json:"period" default:"1"`
}

func (cfg RateLimitConfig) Enabled() bool {
	return cfg.Quota > 0
}

func (cfg RateLimitConfig) Validate() error {
	if cfg.Quota < 0 {
		return errors.New("quota cannot be negative value")
	}
	if cfg.Enabled() && cfg.Period <= 0 {
		return errors.New("period must be positive")
	}
	return nil
}

func (cfg RateLimitConfig) Duration() time.Duration {
	return time.Duration(cfg.Period) * time.Second
}

type TLS struct {
	Cert string `yaml:"cert" json:"cert"`
	Key  string `yaml:"key" json:"key"`
}

func (cfg TLS) Enabled() bool {
	return cfg.Cert != "" && cfg.Key != ""
}
