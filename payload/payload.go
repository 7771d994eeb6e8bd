// Package payload converts between SeldonMessages and the values handed to
// components.
package payload

import (
	"fmt"
	"maps"

	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

type Type int

const (
	TypeData Type = iota + 1
	TypeBin
	TypeStr
	TypeJson
)

// Payload is the component-facing view of a message.
//
// Value holds a *tensor.Dense for numeric data, []any for non-numeric
// ndarrays, []byte for binData, string for strData and the decoded JSON value
// for jsonData.
type Payload struct {
	Type  Type
	Kind  message.DataKind
	Value any
	Names []string
}

// Array returns the numeric array of a data payload, or nil.
func (p *Payload) Array() *tensor.Dense {
	d, _ := p.Value.(*tensor.Dense)
	return d
}

// Extract converts the payload carried by msg.
func Extract(msg *message.SeldonMessage) (*Payload, error) {
	if msg == nil {
		return nil, errs.BadData("Can't find data in message")
	}
	switch {
	case msg.Data != nil:
		value, err := extractData(msg.Data)
		if err != nil {
			return nil, err
		}
		return &Payload{Type: TypeData, Kind: msg.Data.Kind(), Value: value, Names: msg.Data.Names}, nil
	case msg.BinData != nil:
		return &Payload{Type: TypeBin, Value: msg.BinData}, nil
	case msg.StrData != "":
		return &Payload{Type: TypeStr, Value: msg.StrData}, nil
	case msg.JsonData != nil:
		return &Payload{Type: TypeJson, Value: msg.JsonData}, nil
	}
	return nil, errs.BadData("Can't find data in message")
}

func extractData(data *message.DefaultData) (any, error) {
	switch data.Kind() {
	case message.KindTensor:
		d, err := tensor.New(data.Tensor.Shape, data.Tensor.Values)
		if err != nil {
			return nil, errs.BadData("invalid tensor: %s", err)
		}
		return d, nil
	case message.KindNdarray:
		if d, err := tensor.FromNested(data.Ndarray); err == nil {
			return d, nil
		}
		return data.Ndarray, nil
	case message.KindTFTensor:
		d, err := tensor.New(data.TFTensor.Shape(), tfValues(data.TFTensor))
		if err != nil {
			return nil, errs.BadData("invalid tftensor: %s", err)
		}
		return d, nil
	}
	return nil, errs.BadData("data must carry one of tensor, ndarray, tftensor")
}

func tfValues(t *message.TFTensor) []float64 {
	values := make([]float64, 0, t.Len())
	switch t.Dtype {
	case message.DTFloat:
		for _, v := range t.FloatVal {
			values = append(values, float64(v))
		}
	case message.DTDouble:
		values = append(values, t.DoubleVal...)
	case message.DTInt32:
		for _, v := range t.IntVal {
			values = append(values, float64(v))
		}
	case message.DTInt64:
		for _, v := range t.Int64Val {
			values = append(values, float64(v))
		}
	}
	return values
}

// Build converts a component output into a response for req. Array outputs
// keep the data kind of the request, defaulting to tensor.
func Build(out any, req *message.SeldonMessage, names []string) (*message.SeldonMessage, error) {
	resp := &message.SeldonMessage{Meta: CopyMeta(req)}

	switch v := out.(type) {
	case nil:
		return nil, errs.BadData("component returned no payload")
	case []byte:
		resp.BinData = v
		return resp, nil
	case string:
		resp.StrData = v
		return resp, nil
	case *tensor.Dense:
		resp.Data = BuildData(v, kindOf(req), names)
		return resp, nil
	case []float64, [][]float64, []any:
		if d, err := tensor.FromNested(v); err == nil {
			resp.Data = BuildData(d, kindOf(req), names)
			return resp, nil
		}
		if generic, ok := v.([]any); ok {
			resp.Data = &message.DefaultData{Names: names, Ndarray: generic}
			return resp, nil
		}
		return nil, errs.BadData("component returned a ragged array")
	case map[string]any:
		resp.JsonData = v
		return resp, nil
	}
	return nil, errs.BadData("Unknown data type returned as payload: %T", out)
}

func kindOf(req *message.SeldonMessage) message.DataKind {
	if req != nil && req.Data != nil {
		if kind := req.Data.Kind(); kind != "" {
			return kind
		}
	}
	return message.KindTensor
}

// BuildData encodes d in the given kind.
func BuildData(d *tensor.Dense, kind message.DataKind, names []string) *message.DefaultData {
	data := &message.DefaultData{Names: names}
	switch kind {
	case message.KindNdarray:
		nested, ok := d.ToNested().([]any)
		if !ok {
			nested = []any{d.ToNested()}
		}
		data.Ndarray = nested
	case message.KindTFTensor:
		data.TFTensor = buildTFTensor(d)
	default:
		data.Tensor = &message.Tensor{Shape: d.Shape(), Values: d.Values()}
	}
	return data
}

func buildTFTensor(d *tensor.Dense) *message.TFTensor {
	shape := &message.TensorShape{Dim: make([]message.Dim, 0, d.NDim())}
	for _, size := range d.Shape() {
		shape.Dim = append(shape.Dim, message.Dim{Size: message.Int64(size)})
	}
	return &message.TFTensor{
		Dtype:       message.DTDouble,
		TensorShape: shape,
		DoubleVal:   d.Values(),
	}
}

// CopyMeta copies the request meta carried over into responses.
func CopyMeta(req *message.SeldonMessage) *message.Meta {
	if req == nil || req.Meta == nil {
		return nil
	}
	meta := &message.Meta{
		Puid:        req.Meta.Puid,
		Tags:        maps.Clone(req.Meta.Tags),
		Routing:     maps.Clone(req.Meta.Routing),
		RequestPath: maps.Clone(req.Meta.RequestPath),
	}
	return meta
}

// ClassNames returns the default names of a prediction: t:0..t:k-1 for two
// or more dimensional outputs, none otherwise.
func ClassNames(out any) []string {
	cols := -1
	switch v := out.(type) {
	case *tensor.Dense:
		if v.NDim() >= 2 {
			cols = v.Shape()[1]
		}
	case [][]float64:
		if len(v) > 0 {
			cols = len(v[0])
		}
	case []any:
		if len(v) > 0 {
			if row, ok := v[0].([]any); ok {
				cols = len(row)
			}
		}
	}
	if cols < 0 {
		return []string{}
	}
	names := make([]string, cols)
	for i := range names {
		names[i] = fmt.Sprintf("t:%d", i)
	}
	return names
}
