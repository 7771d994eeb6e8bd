// Package script runs components written in JavaScript.
//
// A script defines the global functions it supports: predict, route,
// transform_input, transform_output, aggregate, send_feedback, score, tags,
// metrics and health_status. It may also define the global arrays
// class_names and feature_names. Numeric arrays are passed to scripts as
// nested arrays and binData as an ArrayBuffer. Component parameters are
// available as the global object parameters.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/tensor"
	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = time.Second

const (
	FuncPredict         = "predict"
	FuncRoute           = "route"
	FuncTransformInput  = "transform_input"
	FuncTransformOutput = "transform_output"
	FuncAggregate       = "aggregate"
	FuncSendFeedback    = "send_feedback"
	FuncScore           = "score"
	FuncTags            = "tags"
	FuncMetrics         = "metrics"
	FuncHealthStatus    = "health_status"
)

var ErrTimeout = errors.New("timeout")

var cache, _ = lru.New[string, *goja.Program](128)

// IsScript reports whether the interface name refers to a script file.
func IsScript(name string) bool {
	return strings.HasSuffix(name, ".js")
}

type Component struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	name    string
	timeout time.Duration
	// interrupt stops the running script with v
	interrupt func(v any)

	classNames   []string
	featureNames []string
}

// Load reads and runs the script file.
func Load(filename string, params component.Parameters) (*Component, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return New(filename, string(b), params)
}

// New runs the script source. The parameter timeout_ms sets the timeout of
// every call.
func New(name string, source string, params component.Parameters) (*Component, error) {
	c := &Component{
		vm:      goja.New(),
		name:    name,
		timeout: DefaultTimeout,
	}
	c.interrupt = c.vm.Interrupt
	if v, ok := params["timeout_ms"]; ok {
		ms, ok := v.(int64)
		if !ok || ms <= 0 {
			return nil, fmt.Errorf("timeout_ms must be a positive INT")
		}
		c.timeout = time.Duration(ms) * time.Millisecond
	}

	c.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := c.setGlobals(params); err != nil {
		return nil, err
	}

	program, ok := cache.Get(source)
	if !ok {
		var err error
		program, err = goja.Compile(name, source, false)
		if err != nil {
			return nil, err
		}
		cache.Add(source, program)
	}
	if err := c.run(context.Background(), func() error {
		_, err := c.vm.RunProgram(program)
		return err
	}); err != nil {
		return nil, err
	}

	var err error
	if c.classNames, err = c.stringArray("class_names"); err != nil {
		return nil, err
	}
	if c.featureNames, err = c.stringArray("feature_names"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Component) setGlobals(params component.Parameters) error {
	log := zap.S().Named("script")
	console := map[string]any{
		"log": func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.String()
			}
			log.Info(strings.Join(args, " "))
			return goja.Undefined()
		},
	}
	if err := c.vm.Set("console", console); err != nil {
		return err
	}
	values := make(map[string]any, len(params))
	for k, v := range params {
		values[k] = v
	}
	return c.vm.Set("parameters", values)
}

func (c *Component) stringArray(name string) ([]string, error) {
	v := c.vm.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	var names []string
	if err := c.vm.ExportTo(v, &names); err != nil {
		return nil, fmt.Errorf("%s must be an array of strings: %w", name, err)
	}
	return names, nil
}

// Defines reports whether the script defines the global function.
func (c *Component) Defines(fn string) bool {
	_, ok := goja.AssertFunction(c.vm.Get(fn))
	return ok
}

// Check verifies the script defines the function required by the service
// type.
func (c *Component) Check(typ component.ServiceType) error {
	required := map[component.ServiceType]string{
		component.ServiceModel:             FuncPredict,
		component.ServiceRouter:            FuncRoute,
		component.ServiceTransformer:       FuncTransformInput,
		component.ServiceOutputTransformer: FuncTransformOutput,
		component.ServiceCombiner:          FuncAggregate,
		component.ServiceOutlierDetector:   FuncScore,
	}
	if fn := required[typ]; !c.Defines(fn) {
		return fmt.Errorf("script '%s' does not define %s", c.name, fn)
	}
	return nil
}

// run executes fn with the call timeout, interrupting the VM when the
// timeout expires or ctx is done. An interrupt already in flight when fn
// returns is waited for before the VM is cleared.
func (c *Component) run(ctx context.Context, fn func() error) error {
	var pending sync.WaitGroup
	pending.Add(2)
	timer := time.AfterFunc(c.timeout, func() {
		defer pending.Done()
		c.interrupt(ErrTimeout)
	})
	stop := context.AfterFunc(ctx, func() {
		defer pending.Done()
		c.interrupt(ctx.Err())
	})
	defer func() {
		if timer.Stop() {
			pending.Done()
		}
		if stop() {
			pending.Done()
		}
		pending.Wait()
		c.vm.ClearInterrupt()
	}()

	err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if e := interrupted.Unwrap(); e != nil {
			return e
		}
		return errors.New(interrupted.String())
	}
	return err
}

// call invokes the global function fn and exports its result. ok is false
// when the script does not define fn.
func (c *Component) call(ctx context.Context, fn string, args ...any) (result any, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := goja.AssertFunction(c.vm.Get(fn))
	if !ok {
		return nil, false, nil
	}
	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = c.toValue(arg)
	}
	err = c.run(ctx, func() error {
		v, err := f(goja.Undefined(), values...)
		if err != nil {
			return err
		}
		result = export(v)
		return nil
	})
	var exception *goja.Exception
	if errors.As(err, &exception) {
		err = errors.New(exception.Value().String())
	}
	return result, true, err
}

func (c *Component) toValue(v any) goja.Value {
	switch x := v.(type) {
	case *tensor.Dense:
		return c.vm.ToValue(x.ToNested())
	case []byte:
		return c.vm.ToValue(c.vm.NewArrayBuffer(x))
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = c.toValue(item)
		}
		return c.vm.ToValue(items)
	}
	return c.vm.ToValue(v)
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch x := v.Export().(type) {
	case goja.ArrayBuffer:
		return x.Bytes()
	default:
		return x
	}
}

func (c *Component) require(ctx context.Context, fn string, args ...any) (any, error) {
	result, ok, err := c.call(ctx, fn, args...)
	if !ok {
		return nil, errs.BadMethod("%s is not defined by script '%s'", fn, c.name)
	}
	return result, err
}

func (c *Component) Predict(ctx context.Context, X any, names []string) (any, error) {
	return c.require(ctx, FuncPredict, X, names)
}

func (c *Component) Route(ctx context.Context, X any, names []string) (int, error) {
	result, err := c.require(ctx, FuncRoute, X, names)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, errs.BadData("route must return an integer, got %v", result)
}

func (c *Component) TransformInput(ctx context.Context, X any, names []string) (any, error) {
	return c.require(ctx, FuncTransformInput, X, names)
}

func (c *Component) TransformOutput(ctx context.Context, X any, names []string) (any, error) {
	return c.require(ctx, FuncTransformOutput, X, names)
}

func (c *Component) Aggregate(ctx context.Context, Xs []any, namesList [][]string) (any, error) {
	return c.require(ctx, FuncAggregate, Xs, namesList)
}

func (c *Component) Score(ctx context.Context, X any, names []string) ([]float64, error) {
	result, err := c.require(ctx, FuncScore, X, names)
	if err != nil {
		return nil, err
	}
	var scores []float64
	if err := decode(result, &scores); err != nil {
		return nil, errs.BadData("score must return an array of numbers")
	}
	return scores, nil
}

func (c *Component) SendFeedback(ctx context.Context, X any, names []string, reward float64, truth any, routing int) (any, error) {
	result, _, err := c.call(ctx, FuncSendFeedback, X, names, reward, truth, routing)
	return result, err
}

func (c *Component) Tags() map[string]any {
	result, _, err := c.call(context.Background(), FuncTags)
	if err != nil {
		zap.S().Named("script").Warnf("failed to get tags: %v", err)
		return nil
	}
	tags, _ := result.(map[string]any)
	return tags
}

func (c *Component) Metrics() []message.Metric {
	result, ok, err := c.call(context.Background(), FuncMetrics)
	if !ok || result == nil {
		return nil
	}
	var metrics []message.Metric
	if err == nil {
		err = decode(result, &metrics)
	}
	if err != nil {
		zap.S().Named("script").Warnf("failed to get metrics: %v", err)
		return nil
	}
	return metrics
}

func (c *Component) HealthStatus(ctx context.Context) (any, error) {
	return c.require(ctx, FuncHealthStatus)
}

func (c *Component) ClassNames() []string {
	return c.classNames
}

func (c *Component) FeatureNames() []string {
	return c.featureNames
}

func (c *Component) Metadata() map[string]any {
	return map[string]any{"script": c.name}
}

func decode(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
