package rpc

import (
	"context"
	"net/http"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ReasonTrailer carries the reason of a failed call.
const ReasonTrailer = "seldon-reason"

// Code returns the gRPC code of a microservice error.
func Code(e *errs.MicroserviceError) codes.Code {
	switch {
	case e.Reason == errs.ReasonBadMethod:
		return codes.Unimplemented
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return codes.InvalidArgument
	}
	return codes.Internal
}

// toStatus converts err into a status error, sending its reason as a
// trailer.
func toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	e := errs.AsMicroserviceError(err)
	_ = grpc.SetTrailer(ctx, metadata.Pairs(ReasonTrailer, e.Reason))
	return status.Error(Code(e), e.Message)
}

// fromStatus converts a call error back into a microservice error.
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	reason := errs.ReasonInternalError
	if values := trailer.Get(ReasonTrailer); len(values) > 0 {
		reason = values[0]
	}
	code := http.StatusInternalServerError
	switch st.Code() {
	case codes.InvalidArgument, codes.Unimplemented:
		code = http.StatusBadRequest
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		code = http.StatusServiceUnavailable
	}
	return errs.NewMicroserviceError(st.Message(), code, reason)
}
