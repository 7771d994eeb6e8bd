// Package status serves runtime status, health indicators and debug
// endpoints on a separate listener.
package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/pkg/accesslog"
	"github.com/AminuIsrael/seldon-core/status/health"
	"go.uber.org/zap"
)

type Status struct {
	api *API
	cfg *modules.StatusConfig
	s   *http.Server
	log *zap.SugaredLogger
}

type Options struct {
	AccessLog  accesslog.AccessLogger
	Indicators []*health.Indicator
	Unit       UnitStats
	Tracing    bool
}

func NewStatus(cfg modules.StatusConfig, opts Options) *Status {
	api := &API{
		startAt:        time.Now(),
		debugEndpoints: cfg.DebugEndpoints,
		tracing:        opts.Tracing,
		unit:           opts.Unit,
		accessLogger:   opts.AccessLog,
	}
	for _, indicator := range opts.Indicators {
		if indicator != nil {
			api.indicators = append(api.indicators, indicator)
		}
	}
	s := &http.Server{
		Handler:      api.Handler(),
		Addr:         cfg.Listen,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	status := &Status{
		api: api,
		cfg: &cfg,
		s:   s,
		log: zap.S().Named("status"),
	}

	return status
}

func (s *Status) Name() string {
	return "status"
}

func (s *Status) Handler() http.Handler {
	return s.s.Handler
}

func (s *Status) Start() error {
	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	go func() {
		if err := s.s.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("failed to serve status HTTP server: %v", err)
		}
	}()

	s.log.Infow(fmt.Sprintf(`listening on address "%s"`, s.cfg.Listen))

	if s.cfg.DebugEndpoints {
		s.log.Infow("serving debug endpoints at /debug", "pprof", "/debug/pprof/")
	}
	return nil
}

func (s *Status) Stop(ctx context.Context) error {
	s.log.Infof("exiting")
	if err := s.s.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Infof("exit")
	return nil
}
