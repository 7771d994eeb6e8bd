package seldon

import (
	_ "embed"
)

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)

// OpenAPI describes the microservice REST endpoints.
//
//go:embed openapi.yml
var OpenAPI []byte
