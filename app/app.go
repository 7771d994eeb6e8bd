// Package app wires a predictive unit into a running microservice.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	seldon "github.com/AminuIsrael/seldon-core"
	"github.com/AminuIsrael/seldon-core/component"
	_ "github.com/AminuIsrael/seldon-core/component/builtin"
	"github.com/AminuIsrael/seldon-core/component/script"
	"github.com/AminuIsrael/seldon-core/config"
	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/mcache"
	"github.com/AminuIsrael/seldon-core/microservice"
	"github.com/AminuIsrael/seldon-core/persistence"
	"github.com/AminuIsrael/seldon-core/pkg/accesslog"
	"github.com/AminuIsrael/seldon-core/pkg/log"
	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"github.com/AminuIsrael/seldon-core/pkg/openapi"
	"github.com/AminuIsrael/seldon-core/pkg/ratelimiter"
	"github.com/AminuIsrael/seldon-core/pkg/serializer"
	"github.com/AminuIsrael/seldon-core/pkg/tracing"
	"github.com/AminuIsrael/seldon-core/rpc"
	"github.com/AminuIsrael/seldon-core/services"
	"github.com/AminuIsrael/seldon-core/status"
	"github.com/AminuIsrael/seldon-core/status/health"
	"github.com/redis/go-redis/v9"
	uuid "github.com/satori/go.uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
)

// Options selects the component and how it is served.
type Options struct {
	// Interface is a registered component name or a path to a script
	Interface   string
	API         APIType
	ServiceType component.ServiceType
}

type Application struct {
	nodeID string

	cfg  *config.Config
	opts Options

	mux     sync.Mutex
	started bool

	stop chan struct{}

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	redis   *redis.Client
	unit    *component.Unit

	services *services.Group
}

func New(cfg *config.Config, opts Options) (*Application, error) {
	app := &Application{
		nodeID:   uuid.NewV4().String(),
		cfg:      cfg,
		opts:     opts,
		stop:     make(chan struct{}, 1),
		services: services.NewGroup(),
	}

	err := app.initialize()
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	log, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log.Desugar())
	app.log = log

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		app.log.Error(err)
	}))

	app.tracer, err = tracing.New(&cfg.Tracing)
	if err != nil {
		return err
	}

	app.metrics, err = metrics.New(cfg.Metrics)
	if err != nil {
		return err
	}

	app.unit, err = app.newUnit()
	if err != nil {
		return err
	}

	if cfg.Persistence.Enabled || cfg.Cache.Enabled && cfg.Cache.Redis || cfg.Server.RateLimit.Enabled() {
		app.redis = cfg.Redis.GetClient()
	}

	// servers stop before persistence so the final push sees the last request
	if cfg.Persistence.Enabled {
		if err := app.initPersistence(); err != nil {
			return err
		}
	}

	switch app.opts.API {
	case APIRest:
		if err := app.initREST(); err != nil {
			return err
		}
	case APIGrpc:
		app.services.Add(rpc.NewServer(app.unit, rpc.Options{
			Addr:           cfg.Server.Listen,
			MaxMessageSize: int(cfg.Server.MaxRequestBodySize),
			Metrics:        app.metrics,
		}))
	default:
		return fmt.Errorf("invalid api type: %s", app.opts.API)
	}

	if cfg.Status.IsEnabled() {
		if err := app.initStatus(); err != nil {
			return err
		}
	}

	return nil
}

func (app *Application) newUnit() (*component.Unit, error) {
	cfg := app.cfg
	params, err := component.ParseParameters(cfg.Unit.Parameters)
	if err != nil {
		return nil, err
	}

	var user any
	if script.IsScript(app.opts.Interface) {
		c, err := script.Load(app.opts.Interface, params)
		if err != nil {
			return nil, fmt.Errorf("failed to load script '%s': %w", app.opts.Interface, err)
		}
		if err := c.Check(app.opts.ServiceType); err != nil {
			return nil, err
		}
		user = c
	} else {
		user, err = component.New(app.opts.Interface, params)
		if err != nil {
			return nil, err
		}
	}

	return component.NewUnit(app.opts.Interface, app.opts.ServiceType, user,
		component.WithUnitID(cfg.Unit.ID),
		component.WithLogger(app.log.Named("component")),
		component.WithMetrics(app.metrics),
	)
}

func (app *Application) initPersistence() error {
	cfg := app.cfg
	if !app.unit.Stateful() {
		app.log.Warnf("persistence is enabled but component '%s' has no state", app.unit.Name())
		return nil
	}
	s, err := serializer.Lookup(string(cfg.Persistence.Serializer))
	if err != nil {
		return err
	}
	lockTimeout := time.Duration(cfg.Persistence.LockTimeout) * time.Second
	p := persistence.New(app.unit,
		persistence.NewRedisStore(app.redis),
		persistence.NewRedisLocker(app.redis, lockTimeout),
		persistence.Options{
			Key:          cfg.Unit.PersistenceKey(),
			PushInterval: time.Duration(cfg.Persistence.PushFrequency) * time.Second,
			LockTimeout:  lockTimeout,
			Serializer:   s,
		}).WithMetrics(app.metrics)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := p.Restore(ctx); err != nil {
		return err
	}
	app.services.Add(p)
	return nil
}

func (app *Application) accessLogger(name string) (accesslog.AccessLogger, error) {
	cfg := app.cfg.AccessLog
	if !cfg.Enabled {
		return nil, nil
	}
	return accesslog.NewAccessLogger(name, accesslog.Options{
		File:    cfg.File,
		Format:  string(cfg.Format),
		Colored: cfg.Colored,
	})
}

func (app *Application) initREST() error {
	cfg := app.cfg
	opts := microservice.Options{
		Config:  cfg.Server,
		Unit:    app.unit,
		Metrics: app.metrics,
		Tracing: app.tracer != nil,
	}

	var err error
	if opts.AccessLog, err = app.accessLogger("rest"); err != nil {
		return err
	}

	if cfg.Server.Validation {
		if opts.Spec, err = openapi.Load(seldon.OpenAPI); err != nil {
			return err
		}
	}

	if cfg.Cache.Enabled && app.opts.ServiceType == component.ServiceModel {
		if opts.Cache, err = mcache.NewFromConfig(cfg.Cache, app.redis, app.metrics); err != nil {
			return err
		}
	}

	if cfg.Server.RateLimit.Enabled() {
		opts.RateLimiter = ratelimiter.NewRedisLimiter(app.redis)
	}

	api := microservice.NewAPI(opts)
	app.services.Add(microservice.NewServer(cfg.Server, api.Handler()))
	return nil
}

func (app *Application) initStatus() error {
	cfg := app.cfg
	accessLogger, err := app.accessLogger("status")
	if err != nil {
		return err
	}
	indicators := []*health.Indicator{health.Unit(app.unit)}
	if app.redis != nil {
		indicators = append(indicators, health.Redis(app.redis))
	}
	app.services.Add(status.NewStatus(cfg.Status, status.Options{
		AccessLog:  accessLogger,
		Indicators: indicators,
		Tracing:    app.tracer != nil,
		Unit: status.UnitStats{
			Name:        app.unit.Name(),
			Type:        string(app.unit.ServiceType()),
			API:         string(app.opts.API),
			Persistence: cfg.Persistence.Enabled && app.unit.Stateful(),
			Cache:       cfg.Cache.Enabled,
		},
	}))
	app.log.Infof("status server enabled at %s", cfg.Status.URL())
	return nil
}

func (app *Application) NodeID() string {
	return app.nodeID
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) Unit() *component.Unit {
	return app.unit
}

// Start starts application
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	app.log.Infow(fmt.Sprintf("starting Seldon Core microservice %s", seldon.VERSION),
		"component", app.unit.Name(),
		"type", app.unit.ServiceType(),
		"api", app.opts.API,
		"services", app.services.Names(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownPeriod)
	defer cancel()
	if err := app.services.Start(ctx); err != nil {
		return err
	}

	app.started = true

	return nil
}

func (app *Application) Wait() {
	<-app.stop
}

// Stop stops application
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting")

	defer func() {
		app.log.Info("exit")
		_ = app.log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownPeriod)
	defer cancel()

	err := app.services.Stop(ctx)
	if app.metrics != nil {
		_ = app.metrics.Stop()
	}
	if app.tracer != nil {
		_ = app.tracer.Stop(ctx)
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}

	app.started = false
	app.stop <- struct{}{}

	return err
}
