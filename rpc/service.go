package rpc

import (
	"context"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"google.golang.org/grpc"
)

const (
	ServiceModel             = "seldon.protos.Model"
	ServiceRouter            = "seldon.protos.Router"
	ServiceTransformer       = "seldon.protos.Transformer"
	ServiceOutputTransformer = "seldon.protos.OutputTransformer"
	ServiceCombiner          = "seldon.protos.Combiner"
	ServiceGeneric           = "seldon.protos.Generic"
	ServiceSeldon            = "seldon.protos.Seldon"
)

// Service is implemented by component.Unit.
type Service interface {
	Predict(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)
	Route(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)
	TransformInput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)
	TransformOutput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)
	Aggregate(ctx context.Context, list *message.SeldonMessageList) (*message.SeldonMessage, error)
	SendFeedback(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error)
}

var _ Service = (*component.Unit)(nil)

func method[T any](service string, name component.Method, call func(Service, context.Context, *T) (*message.SeldonMessage, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + string(name)
	return grpc.MethodDesc{
		MethodName: string(name),
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(T)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Service), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Service), ctx, req.(*T))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func methodDesc(service string, m component.Method) grpc.MethodDesc {
	switch m {
	case component.MethodPredict:
		return method(service, m, Service.Predict)
	case component.MethodRoute:
		return method(service, m, Service.Route)
	case component.MethodTransformInput:
		return method(service, m, Service.TransformInput)
	case component.MethodTransformOutput:
		return method(service, m, Service.TransformOutput)
	case component.MethodAggregate:
		return method(service, m, Service.Aggregate)
	case component.MethodSendFeedback:
		return method(service, m, Service.SendFeedback)
	}
	panic("unknown method " + string(m))
}

func serviceDesc(name string, methods ...component.Method) grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*Service)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "prediction.proto",
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, methodDesc(name, m))
	}
	return desc
}

// ServiceDescs returns the services registered for a service type. Generic
// exposes every operation the type allows.
func ServiceDescs(typ component.ServiceType) []grpc.ServiceDesc {
	descs := []grpc.ServiceDesc{serviceDesc(ServiceGeneric, typ.Methods()...)}
	switch typ {
	case component.ServiceModel:
		descs = append(descs,
			serviceDesc(ServiceModel, component.MethodPredict, component.MethodSendFeedback),
			serviceDesc(ServiceSeldon, component.MethodPredict, component.MethodSendFeedback),
		)
	case component.ServiceRouter:
		descs = append(descs, serviceDesc(ServiceRouter, component.MethodRoute, component.MethodSendFeedback))
	case component.ServiceTransformer, component.ServiceOutlierDetector:
		descs = append(descs, serviceDesc(ServiceTransformer, component.MethodTransformInput))
	case component.ServiceOutputTransformer:
		descs = append(descs, serviceDesc(ServiceOutputTransformer, component.MethodTransformOutput))
	case component.ServiceCombiner:
		descs = append(descs, serviceDesc(ServiceCombiner, component.MethodAggregate))
	}
	return descs
}
