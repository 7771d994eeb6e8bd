package app

import (
	"fmt"
	"strings"
)

// APIType is the transport a microservice serves.
type APIType string

const (
	APIRest APIType = "REST"
	APIGrpc APIType = "GRPC"
	APIFbs  APIType = "FBS"
)

var ErrFlatbuffersUnsupported = fmt.Errorf("api type %s is not supported, use %s or %s", APIFbs, APIRest, APIGrpc)

func ParseAPIType(s string) (APIType, error) {
	switch t := APIType(strings.ToUpper(s)); t {
	case APIRest, APIGrpc:
		return t, nil
	case APIFbs:
		return "", ErrFlatbuffersUnsupported
	default:
		return "", fmt.Errorf("invalid api type: %s", s)
	}
}
