// Package component defines the contract implemented by user components and
// the Unit that serves one of them as a predictive unit.
//
// Components implement only the interfaces they support. Array inputs are
// passed as *tensor.Dense, non-numeric ndarrays as []any, binData as []byte,
// strData as string and jsonData as the decoded JSON value.
package component

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/AminuIsrael/seldon-core/message"
)

type Model interface {
	Predict(ctx context.Context, X any, names []string) (any, error)
}

type Router interface {
	// Route returns the index of the child to send the request to, or -1
	// to send it to all children.
	Route(ctx context.Context, X any, names []string) (int, error)
}

type InputTransformer interface {
	TransformInput(ctx context.Context, X any, names []string) (any, error)
}

type OutputTransformer interface {
	TransformOutput(ctx context.Context, X any, names []string) (any, error)
}

type Combiner interface {
	Aggregate(ctx context.Context, Xs []any, namesList [][]string) (any, error)
}

type OutlierDetector interface {
	Score(ctx context.Context, X any, names []string) ([]float64, error)
}

// FeedbackReceiver receives rewards for earlier predictions. routing is the
// route this unit chose for the request, or -1.
type FeedbackReceiver interface {
	SendFeedback(ctx context.Context, X any, names []string, reward float64, truth any, routing int) (any, error)
}

// ClassNamer names prediction columns. A nil result selects the default
// names.
type ClassNamer interface {
	ClassNames() []string
}

type FeatureNamer interface {
	FeatureNames() []string
}

type Tagger interface {
	Tags() map[string]any
}

type MetricsReporter interface {
	Metrics() []message.Metric
}

type HealthChecker interface {
	HealthStatus(ctx context.Context) (any, error)
}

type MetadataProvider interface {
	Metadata() map[string]any
}

// Stateful components have their state persisted between restarts.
type Stateful interface {
	State() any
	RestoreState(decode func(v any) error) error
}

type ServiceType string

const (
	ServiceModel             ServiceType = "MODEL"
	ServiceRouter            ServiceType = "ROUTER"
	ServiceTransformer       ServiceType = "TRANSFORMER"
	ServiceOutputTransformer ServiceType = "OUTPUT_TRANSFORMER"
	ServiceCombiner          ServiceType = "COMBINER"
	ServiceOutlierDetector   ServiceType = "OUTLIER_DETECTOR"
)

var ServiceTypes = []ServiceType{
	ServiceModel,
	ServiceRouter,
	ServiceTransformer,
	ServiceOutputTransformer,
	ServiceCombiner,
	ServiceOutlierDetector,
}

func ParseServiceType(s string) (ServiceType, error) {
	t := ServiceType(strings.ToUpper(s))
	if !slices.Contains(ServiceTypes, t) {
		return "", fmt.Errorf("invalid service type: %s", s)
	}
	return t, nil
}

type Method string

const (
	MethodPredict         Method = "Predict"
	MethodRoute           Method = "Route"
	MethodTransformInput  Method = "TransformInput"
	MethodTransformOutput Method = "TransformOutput"
	MethodAggregate       Method = "Aggregate"
	MethodSendFeedback    Method = "SendFeedback"
)

var serviceMethods = map[ServiceType][]Method{
	ServiceModel:             {MethodPredict, MethodSendFeedback},
	ServiceRouter:            {MethodRoute, MethodSendFeedback},
	ServiceTransformer:       {MethodTransformInput},
	ServiceOutputTransformer: {MethodTransformOutput},
	ServiceCombiner:          {MethodAggregate},
	ServiceOutlierDetector:   {MethodTransformInput},
}

// Methods returns the operations served for the service type.
func (t ServiceType) Methods() []Method {
	return serviceMethods[t]
}

func (t ServiceType) Allows(m Method) bool {
	return slices.Contains(serviceMethods[t], m)
}

// Supports reports whether user implements the interface required by t.
func (t ServiceType) Supports(user any) bool {
	var ok bool
	switch t {
	case ServiceModel:
		_, ok = user.(Model)
	case ServiceRouter:
		_, ok = user.(Router)
	case ServiceTransformer:
		_, ok = user.(InputTransformer)
	case ServiceOutputTransformer:
		_, ok = user.(OutputTransformer)
	case ServiceCombiner:
		_, ok = user.(Combiner)
	case ServiceOutlierDetector:
		_, ok = user.(OutlierDetector)
	}
	return ok
}
