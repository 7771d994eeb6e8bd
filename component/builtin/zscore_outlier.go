package builtin

import (
	"context"
	"errors"
	"math"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
)

// ZScoreOutlier scores every row by its largest absolute z-score against
// the running statistics of all rows seen before it.
type ZScoreOutlier struct {
	Threshold float64 `json:"threshold" default:"3"`

	state    ZScoreState
	outliers float64
}

// ZScoreState holds running per-feature statistics (Welford).
type ZScoreState struct {
	N    int64     `json:"n"`
	Mean []float64 `json:"mean"`
	M2   []float64 `json:"m2"`
}

func NewZScoreOutlier(params component.Parameters) (any, error) {
	z := &ZScoreOutlier{}
	if err := params.Decode(z); err != nil {
		return nil, err
	}
	if z.Threshold <= 0 {
		return nil, errors.New("threshold must be positive")
	}
	return z, nil
}

func (z *ZScoreOutlier) Score(ctx context.Context, X any, names []string) ([]float64, error) {
	d, err := asMatrix(X)
	if err != nil {
		return nil, err
	}
	if z.state.Mean == nil {
		z.state.Mean = make([]float64, d.Cols())
		z.state.M2 = make([]float64, d.Cols())
	}
	if d.Cols() != len(z.state.Mean) {
		return nil, errs.BadData("expected %d features, got %d", len(z.state.Mean), d.Cols())
	}

	scores := make([]float64, d.Rows())
	z.outliers = 0
	for i := range scores {
		row := d.Row(i)
		scores[i] = z.score(row)
		if scores[i] > z.Threshold {
			z.outliers++
		}
		z.update(row)
	}
	return scores, nil
}

func (z *ZScoreOutlier) score(row []float64) float64 {
	if z.state.N < 2 {
		return 0
	}
	best := 0.0
	for j, v := range row {
		std := math.Sqrt(z.state.M2[j] / float64(z.state.N-1))
		if std == 0 {
			continue
		}
		best = math.Max(best, math.Abs(v-z.state.Mean[j])/std)
	}
	return best
}

func (z *ZScoreOutlier) update(row []float64) {
	z.state.N++
	for j, v := range row {
		delta := v - z.state.Mean[j]
		z.state.Mean[j] += delta / float64(z.state.N)
		z.state.M2[j] += delta * (v - z.state.Mean[j])
	}
}

func (z *ZScoreOutlier) Metrics() []message.Metric {
	return []message.Metric{
		{Key: "outliers_detected", Type: message.MetricCounter, Value: z.outliers},
	}
}

func (z *ZScoreOutlier) State() any {
	return z.state
}

func (z *ZScoreOutlier) RestoreState(decode func(v any) error) error {
	var state ZScoreState
	if err := decode(&state); err != nil {
		return err
	}
	if len(state.Mean) != len(state.M2) {
		return errors.New("invalid persisted statistics")
	}
	z.state = state
	return nil
}
