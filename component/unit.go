package component

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/payload"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/AminuIsrael/seldon-core/pkg/tracing"
	"go.uber.org/zap"
)

const TagOutlierScore = "outlierScore"

// Unit serves a user component as a predictive unit of the given service
// type.
type Unit struct {
	name    string
	typ     ServiceType
	unitID  string
	user    any
	mu      sync.Mutex
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

type Option func(*Unit)

// WithUnitID sets the predictive unit id used to look up feedback routing.
func WithUnitID(id string) Option {
	return func(u *Unit) { u.unitID = id }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(u *Unit) { u.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Unit) { u.metrics = m }
}

func NewUnit(name string, typ ServiceType, user any, opts ...Option) (*Unit, error) {
	if !typ.Supports(user) {
		return nil, fmt.Errorf("component '%s' cannot serve as %s", name, typ)
	}
	u := &Unit{
		name:    name,
		typ:     typ,
		user:    user,
		log:     zap.S(),
		metrics: metrics.Discard(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func (u *Unit) Name() string             { return u.name }
func (u *Unit) ServiceType() ServiceType { return u.typ }
func (u *Unit) Component() any           { return u.user }

// Stateful reports whether the component state is persisted.
func (u *Unit) Stateful() bool {
	_, ok := u.user.(Stateful)
	return ok
}

// call runs fn holding the state lock of stateful components.
func (u *Unit) call(fn func() error) error {
	if u.Stateful() {
		u.mu.Lock()
		defer u.mu.Unlock()
	}
	return fn()
}

// Snapshot encodes the component state under the state lock. ok is false
// for stateless components.
func (u *Unit) Snapshot(encode func(v any) error) (ok bool, err error) {
	s, ok := u.user.(Stateful)
	if !ok {
		return false, nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return true, encode(s.State())
}

func (u *Unit) Restore(decode func(v any) error) error {
	s, ok := u.user.(Stateful)
	if !ok {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.RestoreState(decode)
}

func (u *Unit) allow(m Method) error {
	if !u.typ.Allows(m) {
		return errs.BadMethod("%s is not supported by %s components", m, u.typ)
	}
	return nil
}

func (u *Unit) start(ctx context.Context, m Method) (context.Context, func()) {
	ctx, span := tracing.Start(ctx, "component."+string(m))
	return ctx, func() { span.End() }
}

func (u *Unit) Predict(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	if err := u.allow(MethodPredict); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodPredict)
	defer end()

	in, err := u.extract(req)
	if err != nil {
		return nil, err
	}
	var out any
	err = u.call(func() (err error) {
		out, err = u.user.(Model).Predict(ctx, in.Value, in.Names)
		return
	})
	if err != nil {
		return nil, err
	}
	return u.respond(out, req, u.classNames(out))
}

func (u *Unit) Route(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	if err := u.allow(MethodRoute); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodRoute)
	defer end()

	in, err := u.extract(req)
	if err != nil {
		return nil, err
	}
	var route int
	err = u.call(func() (err error) {
		route, err = u.user.(Router).Route(ctx, in.Value, in.Names)
		return
	})
	if err != nil {
		return nil, err
	}
	if route < -1 {
		return nil, errs.BadData("invalid route %d", route)
	}
	out, _ := tensor.New([]int{1, 1}, []float64{float64(route)})
	return u.respond(out, req, []string{})
}

// TransformInput transforms a request, or scores it for outlier detectors.
func (u *Unit) TransformInput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	if err := u.allow(MethodTransformInput); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodTransformInput)
	defer end()

	in, err := u.extract(req)
	if err != nil {
		return nil, err
	}

	if u.typ == ServiceOutlierDetector {
		var scores []float64
		err = u.call(func() (err error) {
			scores, err = u.user.(OutlierDetector).Score(ctx, in.Value, in.Names)
			return
		})
		if err != nil {
			return nil, err
		}
		resp := *req
		meta := payload.CopyMeta(req)
		if meta == nil {
			meta = &message.Meta{}
		}
		if meta.Tags == nil {
			meta.Tags = make(map[string]any)
		}
		meta.Tags[TagOutlierScore] = scores
		if req.Meta != nil {
			meta.Metrics = req.Meta.Metrics
		}
		resp.Meta = meta
		resp.Status = nil
		return &resp, u.addMeta(&resp)
	}

	var out any
	err = u.call(func() (err error) {
		out, err = u.user.(InputTransformer).TransformInput(ctx, in.Value, in.Names)
		return
	})
	if err != nil {
		return nil, err
	}
	names := in.Names
	if fn, ok := u.user.(FeatureNamer); ok && fn.FeatureNames() != nil {
		names = fn.FeatureNames()
	}
	return u.respond(out, req, names)
}

func (u *Unit) TransformOutput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	if err := u.allow(MethodTransformOutput); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodTransformOutput)
	defer end()

	in, err := u.extract(req)
	if err != nil {
		return nil, err
	}
	var out any
	err = u.call(func() (err error) {
		out, err = u.user.(OutputTransformer).TransformOutput(ctx, in.Value, in.Names)
		return
	})
	if err != nil {
		return nil, err
	}
	return u.respond(out, req, u.classNames(out))
}

// Aggregate combines the outputs of several children. Every message must
// carry data.
func (u *Unit) Aggregate(ctx context.Context, list *message.SeldonMessageList) (*message.SeldonMessage, error) {
	if err := u.allow(MethodAggregate); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodAggregate)
	defer end()

	if err := list.Validate(); err != nil {
		return nil, err
	}
	xs := make([]any, 0, len(list.SeldonMessages))
	namesList := make([][]string, 0, len(list.SeldonMessages))
	for i, msg := range list.SeldonMessages {
		if msg.Data == nil {
			return nil, errs.BadData("seldonMessages[%d] carries no data", i)
		}
		in, err := payload.Extract(msg)
		if err != nil {
			return nil, err
		}
		xs = append(xs, in.Value)
		namesList = append(namesList, in.Names)
	}
	var out any
	err := u.call(func() (err error) {
		out, err = u.user.(Combiner).Aggregate(ctx, xs, namesList)
		return
	})
	if err != nil {
		return nil, err
	}
	return u.respond(out, list.SeldonMessages[0], u.classNames(out))
}

// SendFeedback delivers a reward to the component. Components without
// feedback support acknowledge it with an empty response.
func (u *Unit) SendFeedback(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error) {
	if err := u.allow(MethodSendFeedback); err != nil {
		return nil, err
	}
	ctx, end := u.start(ctx, MethodSendFeedback)
	defer end()

	if err := fb.Validate(); err != nil {
		return nil, err
	}
	receiver, ok := u.user.(FeedbackReceiver)
	if !ok {
		resp := &message.SeldonMessage{}
		return resp, u.addMeta(resp)
	}

	in, err := u.extract(fb.Request)
	if err != nil {
		return nil, err
	}
	var truth any
	if fb.Truth != nil {
		t, err := payload.Extract(fb.Truth)
		if err != nil {
			return nil, err
		}
		truth = t.Value
	}
	routing := u.routing(fb.Response)

	var out any
	err = u.call(func() (err error) {
		out, err = receiver.SendFeedback(ctx, in.Value, in.Names, fb.Reward, truth, routing)
		return
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		resp := &message.SeldonMessage{}
		return resp, u.addMeta(resp)
	}
	return u.respond(out, fb.Request, u.classNames(out))
}

// routing returns the route recorded for this unit in a response, or -1.
func (u *Unit) routing(resp *message.SeldonMessage) int {
	if resp == nil || resp.Meta == nil {
		return -1
	}
	route, ok := resp.Meta.Routing[u.unitID]
	if !ok {
		return -1
	}
	return int(route)
}

// Health returns the component health status.
func (u *Unit) Health(ctx context.Context) (*message.SeldonMessage, error) {
	checker, ok := u.user.(HealthChecker)
	if !ok {
		return nil, errs.BadMethod("health_status is not implemented")
	}
	var status any
	err := u.call(func() (err error) {
		status, err = checker.HealthStatus(ctx)
		return
	})
	if err != nil {
		return nil, err
	}
	return u.respond(status, nil, u.classNames(status))
}

// Metadata describes the served component.
func (u *Unit) Metadata() map[string]any {
	md := map[string]any{
		"name": u.name,
		"type": string(u.typ),
	}
	if p, ok := u.user.(MetadataProvider); ok {
		maps.Copy(md, p.Metadata())
	}
	return md
}

func (u *Unit) extract(req *message.SeldonMessage) (*payload.Payload, error) {
	if req == nil {
		return nil, errs.BadData("Empty request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return payload.Extract(req)
}

func (u *Unit) classNames(out any) []string {
	if cn, ok := u.user.(ClassNamer); ok {
		if names := cn.ClassNames(); names != nil {
			return names
		}
	}
	return payload.ClassNames(out)
}

func (u *Unit) respond(out any, req *message.SeldonMessage, names []string) (*message.SeldonMessage, error) {
	resp, err := payload.Build(out, req, names)
	if err != nil {
		return nil, err
	}
	return resp, u.addMeta(resp)
}

// addMeta adds the component tags and custom metrics to the response and
// records the metrics.
func (u *Unit) addMeta(resp *message.SeldonMessage) error {
	tags, custom := u.componentMeta()
	if len(tags) > 0 {
		meta := resp.GetMeta()
		if meta.Tags == nil {
			meta.Tags = make(map[string]any, len(tags))
		}
		maps.Copy(meta.Tags, tags)
	}
	for i := range custom {
		if err := custom[i].Validate(); err != nil {
			return err
		}
	}
	if len(custom) > 0 {
		meta := resp.GetMeta()
		meta.Metrics = append(meta.Metrics, custom...)
		u.record(custom)
	}
	return nil
}

// componentMeta reads the tags and metrics of the component under the state
// lock.
func (u *Unit) componentMeta() (tags map[string]any, custom []message.Metric) {
	_ = u.call(func() error {
		if tagger, ok := u.user.(Tagger); ok {
			tags = maps.Clone(tagger.Tags())
		}
		if reporter, ok := u.user.(MetricsReporter); ok {
			custom = slices.Clone(reporter.Metrics())
		}
		return nil
	})
	return tags, custom
}

func (u *Unit) record(custom []message.Metric) {
	for _, m := range custom {
		labels := metrics.TagLabels(m.Key, m.Tags)
		switch m.Type {
		case message.MetricCounter:
			u.metrics.ComponentCounter.With(labels...).Add(m.Value)
		case message.MetricGauge:
			u.metrics.ComponentGauge.With(labels...).Set(m.Value)
		case message.MetricTimer:
			u.metrics.ComponentTimer.With(labels...).Observe(m.Value)
		}
	}
}
