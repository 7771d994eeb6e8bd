package modules

import (
	"errors"

	"github.com/AminuIsrael/seldon-core/config/types"
)

// TracingConfig configures span export. Spans cover REST and gRPC requests
// and the component calls made for them.
type TracingConfig struct {
	BaseConfig
	Enabled       bool                 `yaml:"enabled" json:"enabled" default:"false"`
	Attributes    types.Map            `yaml:"attributes" json:"attributes"`
	Opentelemetry OpentelemetryTracing `yaml:"opentelemetry" json:"opentelemetry"`
	SamplingRate  float64              `yaml:"sampling_rate" json:"sampling_rate" default:"1.0" envconfig:"SAMPLING_RATE"`
}

func (cfg *TracingConfig) Validate() error {
	if cfg.SamplingRate > 1 || cfg.SamplingRate < 0 {
		return errors.New("sampling_rate must be in the range [0, 1]")
	}
	return cfg.Opentelemetry.Protocol.Validate()
}

type OpentelemetryTracing struct {
	Protocol OtlpProtocol `yaml:"protocol" json:"protocol" envconfig:"PROTOCOL" default:"http/protobuf"`
	Endpoint string       `yaml:"endpoint" json:"endpoint" envconfig:"ENDPOINT" default:"http://localhost:4318/v1/traces"`
}

