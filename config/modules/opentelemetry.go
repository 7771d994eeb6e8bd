package modules

import (
	"fmt"

	"github.com/AminuIsrael/seldon-core/config/types"
)

type OtlpProtocol string

const (
	OtlpProtocolGRPC OtlpProtocol = "grpc"
	OtlpProtocolHTTP OtlpProtocol = "http/protobuf"
)

func (p OtlpProtocol) Validate() error {
	switch p {
	case OtlpProtocolGRPC, OtlpProtocolHTTP:
		return nil
	}
	return fmt.Errorf("invalid protocol: %s", p)
}

// WithDefaults returns attrs extended with the entries of defaults it does
// not set itself.
func WithDefaults(attrs types.Map, defaults map[string]string) types.Map {
	if len(defaults) == 0 {
		return attrs
	}
	out := make(types.Map, len(attrs)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
