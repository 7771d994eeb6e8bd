package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/stretchr/testify/assert"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustMatrix(rows ...[]float64) *tensor.Dense {
	d, err := tensor.FromRows(rows)
	Expect(err).To(BeNil())
	return d
}

var _ = Describe("Script", Ordered, func() {

	Context("model", func() {
		var c *Component

		BeforeAll(func() {
			var err error
			c, err = New("model.js", `
				var class_names = ["double"];
				var calls = 0;
				function predict(X, names) {
					calls++;
					return X.map(function (row) { return row.map(function (v) { return v * parameters.factor; }); });
				}
				function tags() { return { "calls": calls }; }
				function metrics() { return [{ "key": "calls", "type": "COUNTER", "value": 1 }]; }
				function health_status() { return "ok"; }
			`, component.Parameters{"factor": 2.0})
			Expect(err).To(BeNil())
		})

		It("predicts", func() {
			out, err := c.Predict(context.TODO(), mustMatrix([]float64{1, 2}), nil)
			Expect(err).To(BeNil())
			d, err := tensor.FromNested(out)
			Expect(err).To(BeNil())
			assert.Equal(GinkgoT(), []float64{2, 4}, d.Values())
			assert.Equal(GinkgoT(), []int{1, 2}, d.Shape())
		})

		It("reports names, tags and metrics", func() {
			assert.Equal(GinkgoT(), []string{"double"}, c.ClassNames())
			assert.Nil(GinkgoT(), c.FeatureNames())
			assert.Equal(GinkgoT(), map[string]any{"calls": int64(1)}, c.Tags())
			assert.Equal(GinkgoT(), []message.Metric{{Key: "calls", Type: message.MetricCounter, Value: 1}}, c.Metrics())
		})

		It("checks health", func() {
			status, err := c.HealthStatus(context.TODO())
			Expect(err).To(BeNil())
			Expect(status).To(Equal("ok"))
		})

		It("serves as a model unit", func() {
			Expect(c.Check(component.ServiceModel)).To(BeNil())
			Expect(c.Check(component.ServiceRouter)).To(MatchError("script 'model.js' does not define route"))

			u, err := component.NewUnit("model.js", component.ServiceModel, c)
			Expect(err).To(BeNil())
			resp, err := u.Predict(context.TODO(), &message.SeldonMessage{
				Data: &message.DefaultData{Ndarray: []any{[]any{1.0, 3.0}}},
			})
			Expect(err).To(BeNil())
			Expect(resp.Data.Names).To(Equal([]string{"double"}))
			Expect(resp.Data.Ndarray).To(Equal([]any{[]any{2.0, 6.0}}))
		})

		It("returns BAD_METHOD for undefined functions", func() {
			_, err := c.Route(context.TODO(), nil, nil)
			Expect(errs.AsMicroserviceError(err).Reason).To(Equal(errs.ReasonBadMethod))
		})
	})

	Context("router", func() {
		It("routes and receives feedback", func() {
			c, err := New("router.js", `
				var rewards = {};
				function route(X, names) { return 1; }
				function send_feedback(X, names, reward, truth, routing) {
					rewards[routing] = (rewards[routing] || 0) + reward;
				}
				function tags() { return rewards; }
			`, nil)
			Expect(err).To(BeNil())

			route, err := c.Route(context.TODO(), nil, nil)
			Expect(err).To(BeNil())
			Expect(route).To(Equal(1))

			out, err := c.SendFeedback(context.TODO(), nil, nil, 0.5, nil, 1)
			Expect(err).To(BeNil())
			Expect(out).To(BeNil())
			Expect(c.Tags()).To(Equal(map[string]any{"1": 0.5}))
		})

		It("rejects non integer routes", func() {
			c, err := New("router.js", `function route() { return "a"; }`, nil)
			Expect(err).To(BeNil())
			_, err = c.Route(context.TODO(), nil, nil)
			Expect(err).To(MatchError("route must return an integer, got a"))
		})
	})

	Context("payloads", func() {
		It("passes binData as an ArrayBuffer", func() {
			c, err := New("bin.js", `function predict(X) { return X.byteLength; }
				function transform_input(X) { return X; }`, nil)
			Expect(err).To(BeNil())
			out, err := c.Predict(context.TODO(), []byte("abc"), nil)
			Expect(err).To(BeNil())
			Expect(out).To(Equal(int64(3)))

			out, err = c.TransformInput(context.TODO(), []byte("abc"), nil)
			Expect(err).To(BeNil())
			Expect(out).To(Equal([]byte("abc")))
		})

		It("aggregates and scores", func() {
			c, err := New("combiner.js", `
				function aggregate(Xs, namesList) { return Xs.length; }
				function score(X) { return X.map(function () { return 0.5; }); }
			`, nil)
			Expect(err).To(BeNil())
			out, err := c.Aggregate(context.TODO(), []any{mustMatrix([]float64{1}), mustMatrix([]float64{2})}, nil)
			Expect(err).To(BeNil())
			Expect(out).To(Equal(int64(2)))

			scores, err := c.Score(context.TODO(), mustMatrix([]float64{1}, []float64{2}), nil)
			Expect(err).To(BeNil())
			Expect(scores).To(Equal([]float64{0.5, 0.5}))
		})
	})

	Context("errors", func() {
		It("error during loading script", func() {
			_, err := New("bad.js", `throw("js error");`, nil)
			Expect(err).NotTo(BeNil())
		})

		It("error during a call", func() {
			c, err := New("throw.js", `function predict() { throw new Error("boom"); }`, nil)
			Expect(err).To(BeNil())
			_, err = c.Predict(context.TODO(), nil, nil)
			Expect(err).To(MatchError("Error: boom"))
		})

		It("times out", func() {
			c, err := New("loop.js", `function predict() { while (true) {} }`, component.Parameters{"timeout_ms": int64(50)})
			Expect(err).To(BeNil())
			start := time.Now()
			_, err = c.Predict(context.TODO(), nil, nil)
			Expect(err).To(MatchError(ErrTimeout))
			Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))

			// the VM stays usable after an interrupt
			_, err = c.Predict(context.TODO(), nil, nil)
			Expect(err).To(MatchError(ErrTimeout))
		})

		It("does not carry a late interrupt into the next call", func() {
			c, err := New("slow.js", `
				function predict() { var end = Date.now() + 5; while (Date.now() < end) {} return [[1]]; }
				function tags() { return { "ok": true }; }
			`, component.Parameters{"timeout_ms": int64(1)})
			Expect(err).To(BeNil())
			interrupt := c.interrupt
			c.interrupt = func(v any) {
				time.Sleep(30 * time.Millisecond)
				interrupt(v)
			}

			// the timer fires during predict but interrupts after it returned
			_, err = c.Predict(context.TODO(), nil, nil)
			Expect(err).To(BeNil())
			time.Sleep(50 * time.Millisecond)

			Expect(c.Tags()).To(Equal(map[string]any{"ok": true}))
		})

		It("stops when the context is done", func() {
			c, err := New("loop.js", `function predict() { while (true) {} }`, nil)
			Expect(err).To(BeNil())
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err = c.Predict(ctx, nil, nil)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})

		It("rejects an invalid timeout", func() {
			_, err := New("x.js", ``, component.Parameters{"timeout_ms": "1s"})
			Expect(err).To(MatchError("timeout_ms must be a positive INT"))
		})
	})

	Context("Load", func() {
		It("loads a file", func() {
			filename := filepath.Join(GinkgoT().TempDir(), "model.js")
			Expect(os.WriteFile(filename, []byte(`function predict(X) { return X; }`), 0o600)).To(Succeed())
			Expect(IsScript(filename)).To(BeTrue())
			c, err := Load(filename, nil)
			Expect(err).To(BeNil())
			Expect(c.Defines(FuncPredict)).To(BeTrue())
			Expect(c.Metadata()).To(Equal(map[string]any{"script": filename}))

			_, err = Load(filepath.Join(GinkgoT().TempDir(), "missing.js"), nil)
			Expect(err).NotTo(BeNil())
		})
	})
})

func Test(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Script Suite")
}
