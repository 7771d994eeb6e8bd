// Package message defines the Seldon prediction payloads exchanged between
// predictive units, in their JSON (camelCase) representation.
package message

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type StatusFlag string

const (
	StatusSuccess StatusFlag = "SUCCESS"
	StatusFailure StatusFlag = "FAILURE"
)

type MetricType string

const (
	MetricCounter MetricType = "COUNTER"
	MetricGauge   MetricType = "GAUGE"
	MetricTimer   MetricType = "TIMER"
)

type DataKind string

const (
	KindTensor   DataKind = "tensor"
	KindNdarray  DataKind = "ndarray"
	KindTFTensor DataKind = "tftensor"
)

// SeldonMessage carries at most one of Data, BinData, StrData or JsonData.
type SeldonMessage struct {
	Status   *Status      `json:"status,omitempty"`
	Meta     *Meta        `json:"meta,omitempty"`
	Data     *DefaultData `json:"data,omitempty"`
	BinData  []byte       `json:"binData,omitempty"`
	StrData  string       `json:"strData,omitempty"`
	JsonData any          `json:"jsonData,omitempty"`
}

type Status struct {
	Code   int32      `json:"code"`
	Info   string     `json:"info"`
	Reason string     `json:"reason"`
	Status StatusFlag `json:"status"`
}

type Meta struct {
	Puid        string            `json:"puid,omitempty"`
	Tags        map[string]any    `json:"tags,omitempty"`
	Routing     map[string]int32  `json:"routing,omitempty"`
	RequestPath map[string]string `json:"requestPath,omitempty"`
	Metrics     []Metric          `json:"metrics,omitempty"`
}

type Metric struct {
	Key   string            `json:"key" validate:"required"`
	Type  MetricType        `json:"type" validate:"oneof=COUNTER GAUGE TIMER"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// DefaultData carries exactly one of Tensor, Ndarray or TFTensor.
type DefaultData struct {
	Names    []string  `json:"names,omitempty"`
	Tensor   *Tensor   `json:"tensor,omitempty"`
	Ndarray  []any     `json:"ndarray,omitempty"`
	TFTensor *TFTensor `json:"tftensor,omitempty"`
}

type Tensor struct {
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

type TFDataType string

const (
	DTFloat  TFDataType = "DT_FLOAT"
	DTDouble TFDataType = "DT_DOUBLE"
	DTInt32  TFDataType = "DT_INT32"
	DTInt64  TFDataType = "DT_INT64"
)

// TFTensor is the subset of a tensorflow TensorProto understood by the
// microservice. Values live in the slice matching Dtype.
type TFTensor struct {
	Dtype       TFDataType   `json:"dtype"`
	TensorShape *TensorShape `json:"tensorShape,omitempty"`
	FloatVal    []float32    `json:"floatVal,omitempty"`
	DoubleVal   []float64    `json:"doubleVal,omitempty"`
	IntVal      []int32      `json:"intVal,omitempty"`
	Int64Val    []Int64      `json:"int64Val,omitempty"`
}

type TensorShape struct {
	Dim []Dim `json:"dim"`
}

type Dim struct {
	Size Int64  `json:"size"`
	Name string `json:"name,omitempty"`
}

// Int64 accepts both JSON numbers and the quoted form protobuf emits for
// 64-bit integers.
type Int64 int64

func (i *Int64) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*i = Int64(v)
	return nil
}

type Feedback struct {
	Request  *SeldonMessage `json:"request,omitempty"`
	Response *SeldonMessage `json:"response,omitempty"`
	Reward   float64        `json:"reward"`
	Truth    *SeldonMessage `json:"truth,omitempty"`
}

type SeldonMessageList struct {
	SeldonMessages []*SeldonMessage `json:"seldonMessages"`
}

// Kind returns the representation the data is carried in.
func (d *DefaultData) Kind() DataKind {
	switch {
	case d == nil:
		return ""
	case d.Tensor != nil:
		return KindTensor
	case d.TFTensor != nil:
		return KindTFTensor
	case d.Ndarray != nil:
		return KindNdarray
	}
	return ""
}

// GetMeta returns the message meta, creating it when absent.
func (m *SeldonMessage) GetMeta() *Meta {
	if m.Meta == nil {
		m.Meta = &Meta{}
	}
	return m.Meta
}

func (m *SeldonMessage) Failed() bool {
	return m.Status != nil && m.Status.Status == StatusFailure
}

// NewFailure builds the failure envelope returned for rejected requests.
func NewFailure(info string, reason string) *SeldonMessage {
	return &SeldonMessage{
		Status: &Status{
			Code:   -1,
			Info:   info,
			Reason: reason,
			Status: StatusFailure,
		},
	}
}

func (m *SeldonMessage) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
