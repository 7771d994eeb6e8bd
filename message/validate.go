package message

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/AminuIsrael/seldon-core/utils"
)

func (m *SeldonMessage) Validate() error {
	n := 0
	if m.Data != nil {
		n++
	}
	if m.BinData != nil {
		n++
	}
	if m.StrData != "" {
		n++
	}
	if m.JsonData != nil {
		n++
	}
	if n > 1 {
		return errs.BadData("message must carry at most one of data, binData, strData, jsonData")
	}
	if m.Data != nil {
		if err := m.Data.Validate(); err != nil {
			return err
		}
	}
	if m.Meta != nil {
		if err := m.Meta.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Meta) Validate() error {
	for i := range m.Metrics {
		if err := m.Metrics[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metric) Validate() error {
	if err := utils.Validate(m); err != nil {
		var ve *errs.ValidateError
		if errors.As(err, &ve) {
			return errs.NewMicroserviceError(fmt.Sprintf("invalid metric %q: %v", m.Key, ve.Fields), http.StatusBadRequest, errs.ReasonBadMetric)
		}
		return err
	}
	return nil
}

func (d *DefaultData) Validate() error {
	n := 0
	if d.Tensor != nil {
		n++
	}
	if d.Ndarray != nil {
		n++
	}
	if d.TFTensor != nil {
		n++
	}
	if n != 1 {
		return errs.BadData("data must carry exactly one of tensor, ndarray, tftensor")
	}
	if d.Tensor != nil {
		return d.Tensor.Validate()
	}
	if d.TFTensor != nil {
		return d.TFTensor.Validate()
	}
	return nil
}

func (t *Tensor) Validate() error {
	if err := tensor.CheckShape(t.Shape, len(t.Values)); err != nil {
		return errs.BadData("invalid tensor: %v", err)
	}
	return nil
}

// Shape returns the dimensions of the tensor.
func (t *TFTensor) Shape() []int {
	if t.TensorShape == nil {
		return nil
	}
	shape := make([]int, len(t.TensorShape.Dim))
	for i, dim := range t.TensorShape.Dim {
		shape[i] = int(dim.Size)
	}
	return shape
}

// Len returns the number of values stored for the tensor dtype.
func (t *TFTensor) Len() int {
	switch t.Dtype {
	case DTFloat:
		return len(t.FloatVal)
	case DTDouble:
		return len(t.DoubleVal)
	case DTInt32:
		return len(t.IntVal)
	case DTInt64:
		return len(t.Int64Val)
	}
	return 0
}

func (t *TFTensor) Validate() error {
	switch t.Dtype {
	case DTFloat, DTDouble, DTInt32, DTInt64:
	default:
		return errs.BadData("unsupported tftensor dtype %q", t.Dtype)
	}
	if err := tensor.CheckShape(t.Shape(), t.Len()); err != nil {
		return errs.BadData("invalid tftensor: %v", err)
	}
	return nil
}

func (f *Feedback) Validate() error {
	for _, m := range []*SeldonMessage{f.Request, f.Response, f.Truth} {
		if m == nil {
			continue
		}
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l *SeldonMessageList) Validate() error {
	if len(l.SeldonMessages) == 0 {
		return errs.BadData("seldonMessages must not be empty")
	}
	for i, m := range l.SeldonMessages {
		if m == nil {
			return errs.BadData("seldonMessages[%d] is null", i)
		}
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}
