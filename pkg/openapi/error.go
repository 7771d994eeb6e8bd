package openapi

import (
	"strconv"
	"strings"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

const (
	prefixBody    = "@body"
	prefixUnknown = "@unknown"
)

// Issues maps the dotted path of an invalid field to its failure reasons,
// e.g. "@body.data.tensor.values.0".
type Issues map[string][]interface{}

func (is Issues) add(field string, reasons ...interface{}) {
	is[field] = append(is[field], reasons...)
}

func (is Issues) merge(other Issues) {
	for field, reasons := range other {
		is.add(field, reasons...)
	}
}

// CollectIssues walks the errors of a schema or request validation.
func CollectIssues(me openapi3.MultiError, prefix string) Issues {
	issues := Issues{}
	for _, err := range me {
		switch err := err.(type) {
		case *openapi3.SchemaError:
			field := prefix
			if ptr := err.JSONPointer(); len(ptr) > 0 {
				field += "." + strings.Join(ptr, ".")
			}
			issues.add(field, err.Reason)
		case *openapi3filter.RequestError:
			issues.merge(requestIssues(err, prefix))
		default:
			issues.add(prefixUnknown, err.Error())
		}
	}
	return issues
}

func requestIssues(err *openapi3filter.RequestError, prefix string) Issues {
	if p := err.Parameter; p != nil {
		prefix = "@" + p.In + "." + p.Name
	}
	switch inner := err.Err.(type) {
	case nil:
		return Issues{prefix: {err.Reason}}
	case openapi3.MultiError:
		return CollectIssues(inner, prefix)
	default:
		return CollectIssues(openapi3.MultiError{inner}, prefix)
	}
}

// Nest turns the dotted paths into nested objects. Numeric segments index
// arrays.
func (is Issues) Nest() map[string]interface{} {
	root := make(map[string]interface{})
	for path, reasons := range is {
		segments := strings.Split(path, ".")
		root[segments[0]] = insert(root[segments[0]], segments[1:], reasons)
	}
	return root
}

func insert(node interface{}, segments []string, value interface{}) interface{} {
	if len(segments) == 0 {
		return value
	}
	if i, err := strconv.Atoi(segments[0]); err == nil && i >= 0 {
		arr, _ := node.([]interface{})
		if len(arr) <= i {
			grown := make([]interface{}, i+1)
			copy(grown, arr)
			arr = grown
		}
		arr[i] = insert(arr[i], segments[1:], value)
		return arr
	}
	m, ok := node.(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
	}
	m[segments[0]] = insert(m[segments[0]], segments[1:], value)
	return m
}

func validateError(me openapi3.MultiError) error {
	return errs.NewValidateFieldsError(errs.ErrRequestValidate, CollectIssues(me, prefixBody).Nest())
}
