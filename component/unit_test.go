package component

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct{}

func (e *echo) Predict(ctx context.Context, X any, names []string) (any, error) { return X, nil }
func (e *echo) TransformInput(ctx context.Context, X any, names []string) (any, error) { return X, nil }
func (e *echo) TransformOutput(ctx context.Context, X any, names []string) (any, error) { return X, nil }

type router struct {
	route    int
	feedback []int
}

func (r *router) Route(ctx context.Context, X any, names []string) (int, error) {
	return r.route, nil
}

func (r *router) SendFeedback(ctx context.Context, X any, names []string, reward float64, truth any, routing int) (any, error) {
	r.feedback = append(r.feedback, routing)
	return nil, nil
}

type scorer struct{}

func (s *scorer) Score(ctx context.Context, X any, names []string) ([]float64, error) {
	return make([]float64, X.(*tensor.Dense).Rows()), nil
}

type summer struct{}

func (s *summer) Aggregate(ctx context.Context, Xs []any, namesList [][]string) (any, error) {
	sum := 0.0
	for _, X := range Xs {
		for _, v := range X.(*tensor.Dense).Values() {
			sum += v
		}
	}
	return []float64{sum}, nil
}

type instrumented struct {
	echo
	metric message.Metric
}

func (i *instrumented) Tags() map[string]any { return map[string]any{"model": "v1"} }
func (i *instrumented) Metrics() []message.Metric { return []message.Metric{i.metric} }
func (i *instrumented) ClassNames() []string { return []string{"a", "b"} }
func (i *instrumented) FeatureNames() []string { return []string{"x", "y"} }
func (i *instrumented) HealthStatus(ctx context.Context) (any, error) { return "ok", nil }
func (i *instrumented) Metadata() map[string]any { return map[string]any{"versions": []string{"v1"}} }

type counter struct {
	n int
}

func (c *counter) Predict(ctx context.Context, X any, names []string) (any, error) {
	c.n++
	return []float64{float64(c.n)}, nil
}

func (c *counter) State() any { return c.n }

func (c *counter) RestoreState(decode func(v any) error) error {
	return decode(&c.n)
}

// bandit keeps per-branch tries that feedback writes and tags and metrics
// read.
type bandit struct {
	tries map[int]float64
}

func (b *bandit) Route(ctx context.Context, X any, names []string) (int, error) { return 0, nil }

func (b *bandit) SendFeedback(ctx context.Context, X any, names []string, reward float64, truth any, routing int) (any, error) {
	b.tries[routing]++
	return nil, nil
}

func (b *bandit) Tags() map[string]any { return map[string]any{"branches": len(b.tries)} }

func (b *bandit) Metrics() []message.Metric {
	return []message.Metric{{Key: "tries", Type: message.MetricGauge, Value: b.tries[0]}}
}

func (b *bandit) State() any { return b.tries }

func (b *bandit) RestoreState(decode func(v any) error) error { return decode(&b.tries) }

func request(t *testing.T, s string) *message.SeldonMessage {
	var msg message.SeldonMessage
	require.NoError(t, json.Unmarshal([]byte(s), &msg))
	return &msg
}

func toJSON(t *testing.T, v any) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func newUnit(t *testing.T, typ ServiceType, user any, opts ...Option) *Unit {
	u, err := NewUnit("test", typ, user, opts...)
	require.NoError(t, err)
	return u
}

func TestNewUnit(t *testing.T) {
	_, err := NewUnit("echo", ServiceRouter, &echo{})
	assert.EqualError(t, err, "component 'echo' cannot serve as ROUTER")

	u := newUnit(t, ServiceModel, &echo{})
	assert.Equal(t, "test", u.Name())
	assert.Equal(t, ServiceModel, u.ServiceType())
	assert.False(t, u.Stateful())
}

func TestPredict(t *testing.T) {
	tests := []struct {
		desc   string
		req    string
		expect string
	}{
		{
			desc:   "ndarray",
			req:    `{"meta":{"puid":"abc"},"data":{"names":["a","b"],"ndarray":[[1,2]]}}`,
			expect: `{"meta":{"puid":"abc"},"data":{"names":["t:0","t:1"],"ndarray":[[1,2]]}}`,
		},
		{
			desc:   "tensor",
			req:    `{"data":{"tensor":{"shape":[2,1],"values":[1,2]}}}`,
			expect: `{"data":{"names":["t:0"],"tensor":{"shape":[2,1],"values":[1,2]}}}`,
		},
		{
			desc:   "strings",
			req:    `{"data":{"ndarray":[["a","b"]]}}`,
			expect: `{"data":{"names":["t:0","t:1"],"ndarray":[["a","b"]]}}`,
		},
		{
			desc:   "strData",
			req:    `{"strData":"hello"}`,
			expect: `{"strData":"hello"}`,
		},
		{
			desc:   "jsonData",
			req:    `{"jsonData":{"a":1}}`,
			expect: `{"jsonData":{"a":1}}`,
		},
	}
	u := newUnit(t, ServiceModel, &echo{})
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			resp, err := u.Predict(context.TODO(), request(t, test.req))
			require.NoError(t, err)
			assert.JSONEq(t, test.expect, toJSON(t, resp))
		})
	}
}

func TestPredictErrors(t *testing.T) {
	u := newUnit(t, ServiceModel, &echo{})

	_, err := u.Predict(context.TODO(), request(t, `{}`))
	assert.EqualError(t, err, "Can't find data in message")
	assert.Equal(t, errs.ReasonBadData, errs.AsMicroserviceError(err).Reason)

	_, err = u.Predict(context.TODO(), nil)
	assert.Equal(t, errs.ReasonBadData, errs.AsMicroserviceError(err).Reason)

	_, err = u.Route(context.TODO(), request(t, `{"data":{"ndarray":[1]}}`))
	assert.Equal(t, errs.ReasonBadMethod, errs.AsMicroserviceError(err).Reason)

	for _, shape := range []string{`[4294967296,4294967296]`, `[16777216,0]`} {
		_, err = u.Predict(context.TODO(), request(t, `{"data":{"tensor":{"shape":`+shape+`,"values":[]}}}`))
		assert.Equal(t, errs.ReasonBadData, errs.AsMicroserviceError(err).Reason, shape)
	}
}

func TestRoute(t *testing.T) {
	u := newUnit(t, ServiceRouter, &router{route: 1})
	resp, err := u.Route(context.TODO(), request(t, `{"data":{"ndarray":[[1,2]]}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"ndarray":[[1]]}}`, toJSON(t, resp))

	u = newUnit(t, ServiceRouter, &router{route: -2})
	_, err = u.Route(context.TODO(), request(t, `{"data":{"ndarray":[[1,2]]}}`))
	assert.EqualError(t, err, "invalid route -2")
}

func TestTransformInputOutlier(t *testing.T) {
	u := newUnit(t, ServiceOutlierDetector, &scorer{})
	resp, err := u.TransformInput(context.TODO(), request(t, `{"meta":{"tags":{"a":"b"}},"data":{"ndarray":[[1],[2]]}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{"tags":{"a":"b","outlierScore":[0,0]}},"data":{"ndarray":[[1],[2]]}}`, toJSON(t, resp))
}

func TestTransformInputFeatureNames(t *testing.T) {
	u := newUnit(t, ServiceTransformer, &echo{})
	resp, err := u.TransformInput(context.TODO(), request(t, `{"data":{"names":["a"],"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, resp.Data.Names)

	u = newUnit(t, ServiceTransformer, &instrumented{metric: message.Metric{Key: "k", Type: message.MetricCounter, Value: 1}})
	resp, err = u.TransformInput(context.TODO(), request(t, `{"data":{"names":["a","b"],"ndarray":[[1,2]]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, resp.Data.Names)
}

func TestTransformOutput(t *testing.T) {
	u := newUnit(t, ServiceOutputTransformer, &echo{})
	resp, err := u.TransformOutput(context.TODO(), request(t, `{"data":{"tftensor":{"dtype":"DT_FLOAT","tensorShape":{"dim":[{"size":1}]},"floatVal":[2]}}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"tftensor":{"dtype":"DT_DOUBLE","tensorShape":{"dim":[{"size":1}]},"doubleVal":[2]}}}`, toJSON(t, resp))
}

func TestAggregate(t *testing.T) {
	u := newUnit(t, ServiceCombiner, &summer{})
	list := &message.SeldonMessageList{SeldonMessages: []*message.SeldonMessage{
		request(t, `{"data":{"ndarray":[1,2]}}`),
		request(t, `{"data":{"ndarray":[3]}}`),
	}}
	resp, err := u.Aggregate(context.TODO(), list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"ndarray":[6]}}`, toJSON(t, resp))

	list.SeldonMessages = append(list.SeldonMessages, request(t, `{"strData":"x"}`))
	_, err = u.Aggregate(context.TODO(), list)
	assert.EqualError(t, err, "seldonMessages[2] carries no data")

	_, err = u.Aggregate(context.TODO(), &message.SeldonMessageList{})
	assert.Equal(t, errs.ReasonBadData, errs.AsMicroserviceError(err).Reason)
}

func TestSendFeedback(t *testing.T) {
	r := &router{route: 0}
	u := newUnit(t, ServiceRouter, r, WithUnitID("r1"))

	fb := &message.Feedback{
		Request:  request(t, `{"data":{"ndarray":[[1]]}}`),
		Response: request(t, `{"meta":{"routing":{"r1":2}},"data":{"ndarray":[[1]]}}`),
		Reward:   1,
	}
	resp, err := u.SendFeedback(context.TODO(), fb)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, toJSON(t, resp))

	fb.Response = request(t, `{"meta":{"routing":{"other":1}}}`)
	_, err = u.SendFeedback(context.TODO(), fb)
	require.NoError(t, err)
	assert.Equal(t, []int{2, -1}, r.feedback)

	// models without feedback support acknowledge it
	u = newUnit(t, ServiceModel, &echo{})
	resp, err = u.SendFeedback(context.TODO(), fb)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, toJSON(t, resp))
}

func TestCustomMetricsAndTags(t *testing.T) {
	u := newUnit(t, ServiceModel, &instrumented{metric: message.Metric{Key: "calls", Type: message.MetricCounter, Value: 1}})
	resp, err := u.Predict(context.TODO(), request(t, `{"meta":{"metrics":[{"key":"old","type":"GAUGE","value":1}]},"data":{"ndarray":[[1,2]]}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"meta":{"tags":{"model":"v1"},"metrics":[{"key":"calls","type":"COUNTER","value":1}]},
		"data":{"names":["a","b"],"ndarray":[[1,2]]}
	}`, toJSON(t, resp))

	u = newUnit(t, ServiceModel, &instrumented{metric: message.Metric{Key: "calls", Type: "HISTOGRAM"}})
	_, err = u.Predict(context.TODO(), request(t, `{"data":{"ndarray":[[1]]}}`))
	assert.Equal(t, errs.ReasonBadMetric, errs.AsMicroserviceError(err).Reason)
}

func TestHealthAndMetadata(t *testing.T) {
	u := newUnit(t, ServiceModel, &echo{})
	_, err := u.Health(context.TODO())
	assert.Equal(t, errs.ReasonBadMethod, errs.AsMicroserviceError(err).Reason)
	assert.Equal(t, map[string]any{"name": "test", "type": "MODEL"}, u.Metadata())

	u = newUnit(t, ServiceModel, &instrumented{metric: message.Metric{Key: "k", Type: message.MetricGauge}})
	resp, err := u.Health(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.StrData)
	assert.Equal(t, map[string]any{"name": "test", "type": "MODEL", "versions": []string{"v1"}}, u.Metadata())
}

func TestSnapshotRestore(t *testing.T) {
	c := &counter{}
	u := newUnit(t, ServiceModel, c)
	assert.True(t, u.Stateful())

	_, err := u.Predict(context.TODO(), request(t, `{"data":{"ndarray":[1]}}`))
	require.NoError(t, err)
	var b string
	ok, err := u.Snapshot(func(v any) error {
		b = toJSON(t, v)
		return nil
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", b)

	restored := &counter{}
	u = newUnit(t, ServiceModel, restored)
	require.NoError(t, u.Restore(func(v any) error { return json.Unmarshal([]byte(b), v) }))
	assert.Equal(t, 1, restored.n)

	ok, err = newUnit(t, ServiceModel, &echo{}).Snapshot(func(v any) error { return nil })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatefulMetaUnderLock(t *testing.T) {
	u := newUnit(t, ServiceRouter, &bandit{tries: map[int]float64{}}, WithUnitID("r1"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := u.Route(context.TODO(), request(t, `{"data":{"ndarray":[[1]]}}`))
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := u.SendFeedback(context.TODO(), &message.Feedback{
					Request:  request(t, `{"data":{"ndarray":[[1]]}}`),
					Response: request(t, `{"meta":{"routing":{"r1":0}}}`),
					Reward:   1,
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	resp, err := u.Route(context.TODO(), request(t, `{"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Meta.Tags["branches"])
	assert.Equal(t, 400.0, resp.Meta.Metrics[0].Value)
}
