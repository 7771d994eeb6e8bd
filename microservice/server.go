package microservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"go.uber.org/zap"
)

// Server is the REST listener of a predictive unit.
type Server struct {
	cfg *modules.ServerConfig
	s   *http.Server
	log *zap.SugaredLogger
}

func NewServer(cfg modules.ServerConfig, handler http.Handler) *Server {
	s := &http.Server{
		Handler: handler,
		Addr:    cfg.Listen,

		WriteTimeout: time.Duration(cfg.TimeoutWrite) * time.Second,
		ReadTimeout:  time.Duration(cfg.TimeoutRead) * time.Second,
	}

	return &Server{
		cfg: &cfg,
		s:   s,
		log: zap.S().Named("rest"),
	}
}

func (s *Server) Name() string {
	return "rest"
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(l)
}

func (s *Server) Serve(l net.Listener) error {
	go func() {
		var err error
		tls := s.cfg.TLS
		if tls.Enabled() {
			err = s.s.ServeTLS(l, tls.Cert, tls.Key)
		} else {
			err = s.s.Serve(l)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("failed to serve: %v", err)
		}
	}()

	s.log.Infow(fmt.Sprintf(`listening on address "%s"`, l.Addr()))
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Infof("exiting")
	if err := s.s.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Infof("exit")
	return nil
}
