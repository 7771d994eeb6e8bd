// Package rpc serves predictive units over gRPC. Seldon messages travel as
// JSON using the "json" content-subtype.
package rpc

import (
	"context"
	"fmt"
	"net"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type Options struct {
	// Addr is the address Start listens on
	Addr           string
	MaxMessageSize int
	Metrics        *metrics.Metrics
}

type Server struct {
	addr string
	srv  *grpc.Server
	log  *zap.SugaredLogger
}

// NewServer registers the services of the unit service type.
func NewServer(unit *component.Unit, opts Options) *Server {
	return newServer(unit, unit.ServiceType(), opts)
}

func newServer(svc Service, typ component.ServiceType, opts Options) *Server {
	log := zap.S().Named("grpc")
	if opts.Metrics == nil {
		opts.Metrics = metrics.Discard()
	}
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(log),
			loggingInterceptor(log),
			metricsInterceptor(opts.Metrics),
			tracingInterceptor(),
			errorInterceptor(),
		),
	}
	if opts.MaxMessageSize > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(opts.MaxMessageSize),
			grpc.MaxSendMsgSize(opts.MaxMessageSize),
		)
	}
	srv := grpc.NewServer(serverOpts...)
	for _, desc := range ServiceDescs(typ) {
		srv.RegisterService(&desc, svc)
	}
	return &Server{addr: opts.Addr, srv: srv, log: log}
}

func (s *Server) Name() string {
	return "grpc"
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	go func() {
		if err := s.Serve(l); err != nil {
			s.log.Errorf("failed to serve: %v", err)
		}
	}()
	return nil
}

// Serve blocks serving connections accepted on l.
func (s *Server) Serve(l net.Listener) error {
	s.log.Infof("listening on %s", l.Addr())
	return s.srv.Serve(l)
}

// Stop stops gracefully, forcing the stop when ctx is done first.
func (s *Server) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
	}
	return nil
}
