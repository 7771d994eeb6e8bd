package modules

import (
	"fmt"
	"net"

	"github.com/AminuIsrael/seldon-core/utils"
)

const listenOff = "off"

// StatusConfig configures the status server, which exposes health and
// debug endpoints on their own listener.
type StatusConfig struct {
	BaseConfig
	// Listen is a host:port, or "off"
	Listen         string `yaml:"listen" json:"listen" default:"off"`
	DebugEndpoints bool   `yaml:"debug_endpoints" json:"debug_endpoints" default:"true" envconfig:"DEBUG_ENDPOINTS"`
}

func (cfg StatusConfig) IsEnabled() bool {
	return cfg.Listen != "" && cfg.Listen != listenOff
}

func (cfg StatusConfig) Validate() error {
	if !cfg.IsEnabled() {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return fmt.Errorf("invalid listen '%s': %s", cfg.Listen, err)
	}
	return nil
}

// URL is the address clients reach the status server at.
func (cfg StatusConfig) URL() string {
	if cfg.IsEnabled() {
		return utils.ListenAddrToURL(false, cfg.Listen)
	}
	return "disabled"
}
