package builtin

import (
	"context"
	"slices"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"gonum.org/v1/gonum/floats"
)

// AverageCombiner averages equally shaped child outputs.
type AverageCombiner struct{}

func NewAverageCombiner(params component.Parameters) (any, error) {
	return &AverageCombiner{}, nil
}

func (c *AverageCombiner) Aggregate(ctx context.Context, Xs []any, namesList [][]string) (any, error) {
	if len(Xs) == 0 {
		return nil, errs.BadData("nothing to aggregate")
	}
	var sum *tensor.Dense
	for i, X := range Xs {
		d, err := tensor.FromNested(X)
		if err != nil {
			return nil, errs.BadData("seldonMessages[%d]: expected a numeric array: %s", i, err)
		}
		if sum == nil {
			sum = d.Clone()
			continue
		}
		if !slices.Equal(sum.Shape(), d.Shape()) {
			return nil, errs.BadData("seldonMessages[%d]: shape %v does not match %v", i, d.Shape(), sum.Shape())
		}
		floats.Add(sum.Values(), d.Values())
	}
	floats.Scale(1/float64(len(Xs)), sum.Values())
	return sum, nil
}
