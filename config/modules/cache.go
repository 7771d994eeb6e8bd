package modules

import "errors"

type CacheConfig struct {
	BaseConfig
	Enabled bool   `yaml:"enabled" json:"enabled" default:"false"`
	L1Size  int    `yaml:"l1_size" json:"l1_size" default:"1000" envconfig:"L1_SIZE"`
	L1TTL   uint32 `yaml:"l1_ttl" json:"l1_ttl" default:"10" envconfig:"L1_TTL"`
	L2TTL   uint32 `yaml:"l2_ttl" json:"l2_ttl" default:"60" envconfig:"L2_TTL"`
	Redis   bool   `yaml:"redis" json:"redis" default:"true"`
}

func (cfg *CacheConfig) Validate() error {
	if cfg.L1Size <= 0 {
		return errors.New("l1_size must be positive")
	}
	return nil
}
