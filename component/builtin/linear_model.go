package builtin

import (
	"context"
	"fmt"
	"math"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"gonum.org/v1/gonum/mat"
)

const (
	ActivationNone    = "none"
	ActivationSigmoid = "sigmoid"
	ActivationSoftmax = "softmax"
)

type LinearModelOptions struct {
	// Weights holds one row of feature weights per output.
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation" default:"none"`
	Classes    []string    `json:"classNames"`
}

// LinearModel computes activation(X W^T + b).
type LinearModel struct {
	opts    LinearModelOptions
	weights *mat.Dense
}

func NewLinearModel(params component.Parameters) (any, error) {
	var opts LinearModelOptions
	if err := params.Decode(&opts); err != nil {
		return nil, err
	}
	w, err := tensor.FromRows(opts.Weights)
	if err != nil || w.Size() == 0 {
		return nil, fmt.Errorf("weights must be a non-empty matrix")
	}
	outputs := w.Rows()
	if opts.Bias == nil {
		opts.Bias = make([]float64, outputs)
	}
	if len(opts.Bias) != outputs {
		return nil, fmt.Errorf("bias must have %d values, got %d", outputs, len(opts.Bias))
	}
	if opts.Classes != nil && len(opts.Classes) != outputs {
		return nil, fmt.Errorf("classNames must have %d values, got %d", outputs, len(opts.Classes))
	}
	switch opts.Activation {
	case ActivationNone, ActivationSigmoid, ActivationSoftmax:
	default:
		return nil, fmt.Errorf("invalid activation: %s", opts.Activation)
	}
	weights, _ := w.Matrix()
	return &LinearModel{opts: opts, weights: weights}, nil
}

func (m *LinearModel) Predict(ctx context.Context, X any, names []string) (any, error) {
	d, err := asMatrix(X)
	if err != nil {
		return nil, err
	}
	_, features := m.weights.Dims()
	if d.Cols() != features {
		return nil, errs.BadData("expected %d features, got %d", features, d.Cols())
	}
	x, err := d.Matrix()
	if err != nil {
		return nil, errs.BadData("%s", err)
	}

	var out mat.Dense
	out.Mul(x, m.weights.T())
	rows, cols := out.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, out.At(i, j)+m.opts.Bias[j])
		}
	}

	result := tensor.FromMatrix(&out)
	switch m.opts.Activation {
	case ActivationSigmoid:
		result = result.Apply(func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
	case ActivationSoftmax:
		result = result.Softmax()
	}
	return result, nil
}

func (m *LinearModel) ClassNames() []string {
	return m.opts.Classes
}
