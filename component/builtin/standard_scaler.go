package builtin

import (
	"context"
	"fmt"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
)

type StandardScaler struct {
	Mean     []float64 `json:"mean"`
	Std      []float64 `json:"std"`
	Features []string  `json:"featureNames"`
}

func NewStandardScaler(params component.Parameters) (any, error) {
	s := &StandardScaler{}
	if err := params.Decode(s); err != nil {
		return nil, err
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Std) {
		return nil, fmt.Errorf("mean and std must be non-empty and of equal length")
	}
	for i, v := range s.Std {
		if v == 0 {
			return nil, fmt.Errorf("std[%d] must not be zero", i)
		}
	}
	return s, nil
}

func (s *StandardScaler) TransformInput(ctx context.Context, X any, names []string) (any, error) {
	d, err := asMatrix(X)
	if err != nil {
		return nil, err
	}
	if d.Cols() != len(s.Mean) {
		return nil, errs.BadData("expected %d features, got %d", len(s.Mean), d.Cols())
	}
	out := d.Clone()
	for i := 0; i < out.Rows(); i++ {
		row := out.Row(i)
		for j := range row {
			row[j] = (row[j] - s.Mean[j]) / s.Std[j]
		}
	}
	return out, nil
}

func (s *StandardScaler) FeatureNames() []string {
	return s.Features
}
