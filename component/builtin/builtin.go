// Package builtin provides ready to serve components.
package builtin

import (
	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

func init() {
	component.Register("MeanClassifier", NewMeanClassifier)
	component.Register("LinearModel", NewLinearModel)
	component.Register("ScoreArgmax", NewScoreArgmax)
	component.Register("StandardScaler", NewStandardScaler)
	component.Register("RandomABTest", NewRandomABTest)
	component.Register("EpsilonGreedy", NewEpsilonGreedy)
	component.Register("AverageCombiner", NewAverageCombiner)
	component.Register("ZScoreOutlier", NewZScoreOutlier)
}

// asMatrix returns X as a rows x features array.
func asMatrix(X any) (*tensor.Dense, error) {
	d, err := tensor.FromNested(X)
	if err != nil {
		return nil, errs.BadData("expected a numeric array: %s", err)
	}
	if d.NDim() == 0 {
		return nil, errs.BadData("expected a numeric array, got a scalar")
	}
	return d.As2D(), nil
}
