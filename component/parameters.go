package component

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/utils"
	"github.com/creasty/defaults"
	"github.com/mitchellh/mapstructure"
)

type ParameterType string

const (
	ParameterInt    ParameterType = "INT"
	ParameterFloat  ParameterType = "FLOAT"
	ParameterDouble ParameterType = "DOUBLE"
	ParameterString ParameterType = "STRING"
	ParameterBool   ParameterType = "BOOL"
)

// Parameter is one entry of a predictive unit parameter list.
type Parameter struct {
	Name  string        `json:"name" validate:"required"`
	Value any           `json:"value"`
	Type  ParameterType `json:"type" validate:"oneof=INT FLOAT DOUBLE STRING BOOL"`
}

// Parameters maps parameter names to typed values.
type Parameters map[string]any

func badParameters(format string, args ...any) error {
	return errs.NewMicroserviceError(fmt.Sprintf(format, args...), http.StatusBadRequest, errs.ReasonBadParameters)
}

// ParseParameters parses a JSON list of parameters. An empty string yields
// no parameters.
func ParseParameters(s string) (Parameters, error) {
	params := Parameters{}
	if strings.TrimSpace(s) == "" {
		return params, nil
	}
	var list []Parameter
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, badParameters("invalid parameters: %s", err)
	}
	for _, p := range list {
		if err := utils.Validate(&p); err != nil {
			return nil, badParameters("invalid parameter '%s': %s", p.Name, err)
		}
		v, err := p.Convert()
		if err != nil {
			return nil, err
		}
		params[p.Name] = v
	}
	return params, nil
}

// Convert returns the parameter value as the Go type of its declared type.
func (p Parameter) Convert() (any, error) {
	raw := fmt.Sprint(p.Value)
	if s, ok := p.Value.(string); ok {
		raw = s
	}
	switch p.Type {
	case ParameterInt:
		if f, ok := p.Value.(float64); ok && f == float64(int64(f)) {
			return int64(f), nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, badParameters("invalid INT value for parameter '%s': %v", p.Name, p.Value)
		}
		return v, nil
	case ParameterFloat, ParameterDouble:
		if f, ok := p.Value.(float64); ok {
			return f, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badParameters("invalid %s value for parameter '%s': %v", p.Type, p.Name, p.Value)
		}
		return v, nil
	case ParameterBool:
		if b, ok := p.Value.(bool); ok {
			return b, nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, badParameters("invalid BOOL value for parameter '%s': %v", p.Name, p.Value)
		}
		return v, nil
	case ParameterString:
		return raw, nil
	}
	return nil, badParameters("invalid type %s for parameter '%s'", p.Type, p.Name)
}

// Decode sets the defaults of out and decodes the parameters into it using
// the json tags of its fields. String values holding JSON decode into slice,
// map and struct fields.
func (p Parameters) Decode(out any) error {
	if err := defaults.Set(out); err != nil {
		return err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       jsonStringHook,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(p)); err != nil {
		return badParameters("invalid parameters: %s", err)
	}
	return nil
}

func jsonStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct:
		s := data.(string)
		if !strings.HasPrefix(strings.TrimSpace(s), "[") && !strings.HasPrefix(strings.TrimSpace(s), "{") {
			return data, nil
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return data, nil
}
