package builtin

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrix(t *testing.T, rows ...[]float64) *tensor.Dense {
	d, err := tensor.FromRows(rows)
	require.NoError(t, err)
	return d
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func TestRegistered(t *testing.T) {
	names := component.Names()
	for _, name := range []string{
		"MeanClassifier", "LinearModel", "ScoreArgmax", "StandardScaler",
		"RandomABTest", "EpsilonGreedy", "AverageCombiner", "ZScoreOutlier",
	} {
		assert.Contains(t, names, name)
	}
}

func TestMeanClassifier(t *testing.T) {
	c, err := component.New("MeanClassifier", component.Parameters{"intValue": int64(1)})
	require.NoError(t, err)
	m := c.(*MeanClassifier)

	out, err := m.Predict(context.TODO(), matrix(t, []float64{1, 3}, []float64{-2, 0}), nil)
	require.NoError(t, err)
	d := out.(*tensor.Dense)
	assert.Equal(t, []int{2, 1}, d.Shape())
	assert.InDelta(t, sigmoid(3), d.Values()[0], 1e-9)
	assert.InDelta(t, sigmoid(0), d.Values()[1], 1e-9)
	assert.Equal(t, []string{"proba"}, m.ClassNames())

	_, err = m.Predict(context.TODO(), "text", nil)
	assert.Error(t, err)
}

func TestLinearModel(t *testing.T) {
	tests := []struct {
		desc   string
		params component.Parameters
		input  *tensor.Dense
		expect []float64
		err    string
	}{
		{
			desc:   "identity with bias",
			params: component.Parameters{"weights": "[[1,0],[0,1]]", "bias": "[1,2]"},
			input:  matrix(t, []float64{1, 2}),
			expect: []float64{2, 4},
		},
		{
			desc:   "sigmoid",
			params: component.Parameters{"weights": "[[1,1]]", "activation": "sigmoid"},
			input:  matrix(t, []float64{0, 0}, []float64{1, 1}),
			expect: []float64{0.5, sigmoid(2)},
		},
		{
			desc:   "softmax",
			params: component.Parameters{"weights": "[[1,0],[1,0]]", "activation": "softmax"},
			input:  matrix(t, []float64{5, 1}),
			expect: []float64{0.5, 0.5},
		},
		{
			desc:   "missing weights",
			params: component.Parameters{},
			err:    "weights must be a non-empty matrix",
		},
		{
			desc:   "bias size",
			params: component.Parameters{"weights": "[[1,0]]", "bias": "[1,2]"},
			err:    "bias must have 1 values, got 2",
		},
		{
			desc:   "activation",
			params: component.Parameters{"weights": "[[1]]", "activation": "relu"},
			err:    "invalid activation: relu",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			c, err := NewLinearModel(test.params)
			if test.err != "" {
				assert.EqualError(t, err, test.err)
				return
			}
			require.NoError(t, err)
			out, err := c.(component.Model).Predict(context.TODO(), test.input, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, test.expect, out.(*tensor.Dense).Values(), 1e-9)
		})
	}
}

func TestLinearModelFeatureMismatch(t *testing.T) {
	c, err := NewLinearModel(component.Parameters{"weights": "[[1,2,3]]"})
	require.NoError(t, err)
	_, err = c.(component.Model).Predict(context.TODO(), matrix(t, []float64{1, 2}), nil)
	assert.EqualError(t, err, "expected 3 features, got 2")
}

func TestScoreArgmax(t *testing.T) {
	scores := matrix(t, []float64{0.1, 0.9}, []float64{0.7, 0.3})

	c, err := NewScoreArgmax(component.Parameters{})
	require.NoError(t, err)
	out, err := c.(component.OutputTransformer).TransformOutput(context.TODO(), scores, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, out.(*tensor.Dense).Values())

	c, err = NewScoreArgmax(component.Parameters{"labels": `["cat","dog"]`})
	require.NoError(t, err)
	out, err = c.(component.OutputTransformer).TransformOutput(context.TODO(), scores, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"dog"}, []any{"cat"}}, out)
}

func TestStandardScaler(t *testing.T) {
	c, err := NewStandardScaler(component.Parameters{
		"mean":         "[1,2]",
		"std":          "[2,4]",
		"featureNames": `["a","b"]`,
	})
	require.NoError(t, err)
	s := c.(*StandardScaler)

	in := matrix(t, []float64{3, 6})
	out, err := s.TransformInput(context.TODO(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, out.(*tensor.Dense).Values())
	assert.Equal(t, []float64{3, 6}, in.Values(), "input must not be modified")
	assert.Equal(t, []string{"a", "b"}, s.FeatureNames())

	_, err = NewStandardScaler(component.Parameters{"mean": "[1]", "std": "[0]"})
	assert.EqualError(t, err, "std[0] must not be zero")
}

func TestRandomABTest(t *testing.T) {
	tests := []struct {
		ratio  float64
		expect int
	}{
		{ratio: 1, expect: 0},
		{ratio: 0, expect: 1},
	}
	for _, test := range tests {
		c, err := NewRandomABTest(component.Parameters{"ratioA": test.ratio, "seed": int64(1)})
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			route, err := c.(component.Router).Route(context.TODO(), nil, nil)
			require.NoError(t, err)
			assert.Equal(t, test.expect, route)
		}
	}

	_, err := NewRandomABTest(component.Parameters{"ratioA": 1.5})
	assert.EqualError(t, err, "ratioA must be in the range [0, 1]")
}

func TestEpsilonGreedy(t *testing.T) {
	c, err := NewEpsilonGreedy(component.Parameters{"nBranches": int64(3), "epsilon": 0.0, "seed": int64(7)})
	require.NoError(t, err)
	e := c.(*EpsilonGreedy)

	route, err := e.Route(context.TODO(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, route)

	_, err = e.SendFeedback(context.TODO(), matrix(t, []float64{1}, []float64{2}), nil, 1, nil, 2)
	require.NoError(t, err)
	route, err = e.Route(context.TODO(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, route)
	assert.Equal(t, map[string]any{"best_branch": 2}, e.Tags())
	assert.Equal(t, 2.0, e.Metrics()[0].Value)

	// feedback without routing is ignored
	_, err = e.SendFeedback(context.TODO(), matrix(t, []float64{1}), nil, 1, nil, -1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, e.state.BranchTries)

	b, err := json.Marshal(e.State())
	require.NoError(t, err)
	restored, err := NewEpsilonGreedy(component.Parameters{"nBranches": int64(3), "epsilon": 0.0})
	require.NoError(t, err)
	require.NoError(t, restored.(*EpsilonGreedy).RestoreState(func(v any) error {
		return json.Unmarshal(b, v)
	}))
	route, err = restored.(*EpsilonGreedy).Route(context.TODO(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, route)

	mismatch, err := NewEpsilonGreedy(component.Parameters{"nBranches": int64(2)})
	require.NoError(t, err)
	assert.Error(t, mismatch.(*EpsilonGreedy).RestoreState(func(v any) error {
		return json.Unmarshal(b, v)
	}))
}

func TestEpsilonGreedyExplores(t *testing.T) {
	c, err := NewEpsilonGreedy(component.Parameters{"nBranches": int64(2), "epsilon": 1.0, "seed": int64(3)})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		route, err := c.(component.Router).Route(context.TODO(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, route)
	}
}

func TestAverageCombiner(t *testing.T) {
	c, err := NewAverageCombiner(nil)
	require.NoError(t, err)
	combiner := c.(component.Combiner)

	a := matrix(t, []float64{1, 2})
	out, err := combiner.Aggregate(context.TODO(), []any{a, matrix(t, []float64{3, 4})}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, out.(*tensor.Dense).Values())
	assert.Equal(t, []float64{1, 2}, a.Values())

	_, err = combiner.Aggregate(context.TODO(), []any{a, matrix(t, []float64{1, 2, 3})}, nil)
	assert.EqualError(t, err, "seldonMessages[1]: shape [1 3] does not match [1 2]")

	_, err = combiner.Aggregate(context.TODO(), nil, nil)
	assert.Error(t, err)
}

func TestZScoreOutlier(t *testing.T) {
	c, err := NewZScoreOutlier(component.Parameters{"threshold": 2.0})
	require.NoError(t, err)
	z := c.(*ZScoreOutlier)

	scores, err := z.Score(context.TODO(), matrix(t, []float64{1}, []float64{2}, []float64{3}), nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 1.5 / math.Sqrt(0.5)}, scores, 1e-9)

	scores, err = z.Score(context.TODO(), matrix(t, []float64{100}), nil)
	require.NoError(t, err)
	assert.Greater(t, scores[0], 2.0)
	assert.Equal(t, []message.Metric{{Key: "outliers_detected", Type: message.MetricCounter, Value: 1}}, z.Metrics())

	_, err = z.Score(context.TODO(), matrix(t, []float64{1, 2}), nil)
	assert.EqualError(t, err, "expected 1 features, got 2")

	b, err := json.Marshal(z.State())
	require.NoError(t, err)
	restored, err := NewZScoreOutlier(component.Parameters{})
	require.NoError(t, err)
	require.NoError(t, restored.(*ZScoreOutlier).RestoreState(func(v any) error {
		return json.Unmarshal(b, v)
	}))
	assert.Equal(t, int64(4), restored.(*ZScoreOutlier).state.N)
}
