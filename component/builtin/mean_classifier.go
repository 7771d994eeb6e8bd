package builtin

import (
	"context"
	"math"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
)

// MeanClassifier predicts the sigmoid of the mean of every row, shifted by
// IntValue.
type MeanClassifier struct {
	IntValue int `json:"intValue" default:"0"`
}

func NewMeanClassifier(params component.Parameters) (any, error) {
	m := &MeanClassifier{}
	if err := params.Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MeanClassifier) Predict(ctx context.Context, X any, names []string) (any, error) {
	d, err := asMatrix(X)
	if err != nil {
		return nil, err
	}
	out := tensor.Zeros(d.Rows(), 1)
	for i := 0; i < d.Rows(); i++ {
		row := d.Row(i)
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		if len(row) > 0 {
			mean /= float64(len(row))
		}
		out.Values()[i] = 1 / (1 + math.Exp(-(mean + float64(m.IntValue))))
	}
	return out, nil
}

func (m *MeanClassifier) ClassNames() []string {
	return []string{"proba"}
}

func (m *MeanClassifier) Metrics() []message.Metric {
	return []message.Metric{
		{Key: "mean_classifier_predictions", Type: message.MetricCounter, Value: 1},
	}
}

func (m *MeanClassifier) HealthStatus(ctx context.Context) (any, error) {
	return m.Predict(ctx, []any{[]any{1.0, 2.0}}, nil)
}

func (m *MeanClassifier) Metadata() map[string]any {
	return map[string]any{
		"versions": []string{"mean-classifier/v1"},
		"inputs":   []map[string]any{{"messagetype": "tensor", "schema": map[string]any{"shape": []int{-1, -1}}}},
		"outputs":  []map[string]any{{"messagetype": "tensor", "schema": map[string]any{"shape": []int{-1, 1}}}},
	}
}
