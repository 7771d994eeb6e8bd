// Package tester sends requests generated from a contract to a
// microservice, directly or through the external API.
package tester

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

type DType string

const (
	DTypeFloat  DType = "FLOAT"
	DTypeInt    DType = "INT"
	DTypeString DType = "STRING"
)

type FType string

const (
	FTypeContinuous  FType = "continuous"
	FTypeCategorical FType = "categorical"
)

// Inf is the range bound meaning unbounded.
const Inf = "inf"

type Feature struct {
	Name   string `json:"name" yaml:"name"`
	DType  DType  `json:"dtype" yaml:"dtype"`
	FType  FType  `json:"ftype" yaml:"ftype"`
	Range  []any  `json:"range,omitempty" yaml:"range,omitempty"`
	Values []any  `json:"values,omitempty" yaml:"values,omitempty"`
	Shape  []int  `json:"shape,omitempty" yaml:"shape,omitempty"`
	Repeat int    `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// Columns returns the number of columns the feature takes in a batch.
func (f Feature) Columns() int {
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// Numeric reports whether every generated value is a number.
func (f Feature) Numeric() bool {
	if f.FType == FTypeContinuous {
		return f.DType != DTypeString
	}
	for _, v := range f.Values {
		if _, ok := v.(float64); !ok {
			return false
		}
	}
	return true
}

type Contract struct {
	Features []Feature `json:"features" yaml:"features"`
	Targets  []Feature `json:"targets,omitempty" yaml:"targets,omitempty"`
}

//go:embed contract.schema.json
var contractSchema string

var schema = func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(contractSchema))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("contract.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("contract.json")
}()

// ValidateError lists the schema violations of a contract.
type ValidateError []string

func (ve ValidateError) Error() string {
	return "invalid contract: " + strings.Join(ve, " | ")
}

var printer = message.NewPrinter(language.English)

func validate(doc any) error {
	err := schema.Validate(doc)
	var e *jsonschema.ValidationError
	if !errors.As(err, &e) {
		return err
	}

	var ve ValidateError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			ve = append(ve, fmt.Sprintf("at '/%s': %s", strings.Join(e.InstanceLocation, "/"), e.ErrorKind.LocalizedString(printer)))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(e)
	return ve
}

// ParseContract parses a JSON or YAML contract.
func ParseContract(data []byte) (*Contract, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}
	// normalize YAML values to the JSON data model
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}
	generic, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}
	if err := validate(generic); err != nil {
		return nil, err
	}

	var contract Contract
	if err := json.Unmarshal(b, &contract); err != nil {
		return nil, fmt.Errorf("invalid contract: %w", err)
	}
	return &contract, nil
}

func LoadContract(filename string) (*Contract, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseContract(data)
}

// Unfold expands features with repeat k into k features named name1..namek.
func (c *Contract) Unfold() *Contract {
	return &Contract{
		Features: unfold(c.Features),
		Targets:  unfold(c.Targets),
	}
}

func unfold(features []Feature) []Feature {
	var out []Feature
	for _, f := range features {
		if f.Repeat <= 1 {
			f.Repeat = 0
			out = append(out, f)
			continue
		}
		for i := 1; i <= f.Repeat; i++ {
			g := f
			g.Name = fmt.Sprintf("%s%d", f.Name, i)
			g.Repeat = 0
			out = append(out, g)
		}
	}
	return out
}

// Names returns the feature names.
func Names(features []Feature) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.Name
	}
	return names
}
