package config

import (
	"encoding/json"
	"fmt"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/config/types"
	"github.com/creasty/defaults"
)

const DefaultServicePort = "5000"

var _ types.Config = &Config{}

// Config Configuration
type Config struct {
	modules.BaseConfig
	Log         modules.LogConfig         `yaml:"log" json:"log" envconfig:"LOG"`
	AccessLog   modules.AccessLogConfig   `yaml:"access_log" json:"access_log" envconfig:"ACCESS_LOG"`
	Server      modules.ServerConfig      `yaml:"server" json:"server" envconfig:"SERVER"`
	Redis       modules.RedisConfig       `yaml:"redis" json:"redis" envconfig:"REDIS"`
	Persistence modules.PersistenceConfig `yaml:"persistence" json:"persistence" envconfig:"PERSISTENCE"`
	Cache       modules.CacheConfig       `yaml:"cache" json:"cache" envconfig:"CACHE"`
	Status      modules.StatusConfig      `yaml:"status" json:"status" envconfig:"STATUS"`
	Metrics     modules.MetricsConfig     `yaml:"metrics" json:"metrics" envconfig:"METRICS"`
	Tracing     modules.TracingConfig     `yaml:"tracing" json:"tracing" envconfig:"TRACING"`
	Secret      modules.SecretConfig      `yaml:"secret" json:"secret" envconfig:"SECRET"`
	Unit        modules.UnitConfig        `yaml:"unit" json:"unit" envconfig:"UNIT"`
}

func (cfg *Config) PostProcess() error {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "0.0.0.0:" + DefaultServicePort
	}
	ids := cfg.Unit.Attributes()
	cfg.Metrics.Attributes = modules.WithDefaults(cfg.Metrics.Attributes, ids)
	cfg.Tracing.Attributes = modules.WithDefaults(cfg.Tracing.Attributes, ids)
	return nil
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (cfg Config) Validate() error {
	for _, m := range []struct {
		name   string
		config types.Config
	}{
		{"log", &cfg.Log},
		{"access_log", &cfg.AccessLog},
		{"server", &cfg.Server},
		{"redis", &cfg.Redis},
		{"persistence", &cfg.Persistence},
		{"cache", &cfg.Cache},
		{"status", &cfg.Status},
		{"metrics", &cfg.Metrics},
		{"tracing", &cfg.Tracing},
		{"secret", &cfg.Secret},
	} {
		if err := m.config.Validate(); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
