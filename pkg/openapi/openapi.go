// Package openapi validates REST requests against the microservice OpenAPI
// document.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

type Spec struct {
	doc    *openapi3.T
	router routers.Router
}

// Load parses and validates an OpenAPI document.
func Load(data []byte) (*Spec, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	if err = doc.Validate(loader.Context,
		openapi3.EnableSchemaFormatValidation(),
		openapi3.DisableSchemaDefaultsValidation(),
	); err != nil {
		return nil, fmt.Errorf("OpenAPI document validation failed: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	return &Spec{doc: doc, router: router}, nil
}

func (s *Spec) Router() routers.Router {
	return s.router
}

// Validate checks a decoded JSON value against the named component schema.
func (s *Spec) Validate(name string, generic interface{}) error {
	ref, ok := s.doc.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema not found: %s", name)
	}

	err := ref.Value.VisitJSON(generic,
		openapi3.MultiErrors(),
		openapi3.VisitAsRequest(),
		openapi3.DisableReadOnlyValidation(),
	)
	switch err := err.(type) {
	case nil:
		return nil
	case openapi3.MultiError:
		return validateError(err)
	case *openapi3.SchemaError:
		return validateError(openapi3.MultiError{err})
	default:
		return err
	}
}
