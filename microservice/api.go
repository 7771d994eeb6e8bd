// Package microservice serves a predictive unit over REST.
package microservice

import (
	"context"
	"net/http"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/mcache"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/accesslog"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/http/middlewares"
	"github.com/AminuIsrael/seldon-core/pkg/http/response"
	"github.com/AminuIsrael/seldon-core/pkg/metrics"
	"github.com/AminuIsrael/seldon-core/pkg/openapi"
	"github.com/AminuIsrael/seldon-core/pkg/ratelimiter"
	"github.com/AminuIsrael/seldon-core/pkg/tracing/instrumentations"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// component schema names of the OpenAPI document
const (
	SchemaSeldonMessage     = "SeldonMessage"
	SchemaFeedback          = "Feedback"
	SchemaSeldonMessageList = "SeldonMessageList"
)

type API struct {
	cfg         modules.ServerConfig
	unit        *component.Unit
	spec        *openapi.Spec
	predict     mcache.PredictFunc
	metrics     *metrics.Metrics
	accessLog   accesslog.AccessLogger
	rateLimiter ratelimiter.RateLimiter
	tracing     bool
	log         *zap.SugaredLogger
}

type Options struct {
	Config modules.ServerConfig
	Unit   *component.Unit
	// Spec validates request messages when set
	Spec        *openapi.Spec
	Cache       *mcache.PredictionCache
	Metrics     *metrics.Metrics
	AccessLog   accesslog.AccessLogger
	RateLimiter ratelimiter.RateLimiter
	Tracing     bool
}

func NewAPI(opts Options) *API {
	api := &API{
		cfg:         opts.Config,
		unit:        opts.Unit,
		spec:        opts.Spec,
		predict:     opts.Unit.Predict,
		metrics:     opts.Metrics,
		accessLog:   opts.AccessLog,
		rateLimiter: opts.RateLimiter,
		tracing:     opts.Tracing,
		log:         zap.S().Named("rest"),
	}
	if api.metrics == nil {
		api.metrics = metrics.Discard()
	}
	if opts.Cache != nil {
		api.predict = opts.Cache.Wrap(api.predict)
	}
	return api
}

func (api *API) error(w http.ResponseWriter, r *http.Request, err error) {
	e := errs.AsMicroserviceError(err)
	if e.StatusCode >= http.StatusInternalServerError {
		api.log.Errorw("request failed", "path", r.URL.Path, "error", err)
	} else {
		api.log.Debugw("request rejected", "path", r.URL.Path, "error", err)
	}
	response.Error(w, r, e)
}

func (api *API) respond(w http.ResponseWriter, r *http.Request, resp *message.SeldonMessage, err error) {
	if err != nil {
		api.error(w, r, err)
		return
	}
	response.Negotiate(w, r, http.StatusOK, resp)
}

// bind reads the request message into v and validates it against schema.
func (api *API) bind(r *http.Request, schema string, v any) error {
	raw, err := readMessage(r)
	if err != nil {
		return err
	}
	var validate func(generic any) error
	if api.spec != nil {
		validate = func(generic any) error {
			return api.spec.Validate(schema, generic)
		}
	}
	return raw.decode(v, validate)
}

type messageHandler func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)

func (api *API) serveMessage(fn messageHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req message.SeldonMessage
		if err := api.bind(r, SchemaSeldonMessage, &req); err != nil {
			api.error(w, r, err)
			return
		}
		resp, err := fn(r.Context(), &req)
		api.respond(w, r, resp, err)
	}
}

func (api *API) Predict(w http.ResponseWriter, r *http.Request) {
	api.serveMessage(messageHandler(api.predict))(w, r)
}

func (api *API) Route(w http.ResponseWriter, r *http.Request) {
	api.serveMessage(api.unit.Route)(w, r)
}

func (api *API) TransformInput(w http.ResponseWriter, r *http.Request) {
	api.serveMessage(api.unit.TransformInput)(w, r)
}

func (api *API) TransformOutput(w http.ResponseWriter, r *http.Request) {
	api.serveMessage(api.unit.TransformOutput)(w, r)
}

func (api *API) Aggregate(w http.ResponseWriter, r *http.Request) {
	var list message.SeldonMessageList
	if err := api.bind(r, SchemaSeldonMessageList, &list); err != nil {
		api.error(w, r, err)
		return
	}
	resp, err := api.unit.Aggregate(r.Context(), &list)
	api.respond(w, r, resp, err)
}

func (api *API) SendFeedback(w http.ResponseWriter, r *http.Request) {
	var fb message.Feedback
	if err := api.bind(r, SchemaFeedback, &fb); err != nil {
		api.error(w, r, err)
		return
	}
	resp, err := api.unit.SendFeedback(r.Context(), &fb)
	api.respond(w, r, resp, err)
}

func (api *API) Ping(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "pong")
}

func (api *API) HealthStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := api.unit.Health(r.Context())
	api.respond(w, r, resp, err)
}

func (api *API) Metadata(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, api.unit.Metadata())
}

func (api *API) notFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, errs.NewMicroserviceError("not found", http.StatusNotFound, errs.ReasonBadMethod))
}

func (api *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, errs.NewMicroserviceError("method not allowed", http.StatusMethodNotAllowed, errs.ReasonBadMethod))
}

// Handler returns a http.Handler
func (api *API) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(api.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(api.methodNotAllowed)

	if api.accessLog != nil {
		r.Use(accesslog.NewMiddleware(api.accessLog))
	}
	if api.tracing {
		r.Use(otelhttp.NewMiddleware("api.rest"))
		r.Use(instrumentations.RouteSpans)
	}
	r.Use(middlewares.NewMetricsMiddleware(api.metrics).Handle)
	r.Use(middlewares.Recover)
	if api.rateLimiter != nil && api.cfg.RateLimit.Enabled() {
		limit := middlewares.NewRateLimit(api.rateLimiter, api.cfg.RateLimit.Quota, api.cfg.RateLimit.Duration(), func(r *http.Request) string {
			return constants.RateLimitKey.Build(middlewares.ClientIP(r))
		})
		r.Use(limit.Handle)
	}
	r.Use(middlewares.MaxBodySize(api.cfg.MaxRequestBodySize))
	if api.spec != nil {
		r.Use(openapi.NewOpenAPIMiddleware(api.spec.Router(), api.error))
	}

	r.HandleFunc("/health/ping", api.Ping).Methods("GET")
	r.HandleFunc("/health/status", api.HealthStatus).Methods("GET")
	r.HandleFunc("/metadata", api.Metadata).Methods("GET")

	for _, m := range api.unit.ServiceType().Methods() {
		switch m {
		case component.MethodPredict:
			r.HandleFunc("/predict", api.Predict).Methods("GET", "POST")
			r.HandleFunc("/api/v0.1/predictions", api.Predict).Methods("POST")
		case component.MethodSendFeedback:
			r.HandleFunc("/send-feedback", api.SendFeedback).Methods("POST")
			r.HandleFunc("/api/v0.1/feedback", api.SendFeedback).Methods("POST")
		case component.MethodRoute:
			r.HandleFunc("/route", api.Route).Methods("POST")
		case component.MethodTransformInput:
			r.HandleFunc("/transform-input", api.TransformInput).Methods("POST")
		case component.MethodTransformOutput:
			r.HandleFunc("/transform-output", api.TransformOutput).Methods("POST")
		case component.MethodAggregate:
			r.HandleFunc("/aggregate", api.Aggregate).Methods("POST")
		}
	}

	var h http.Handler = r
	if api.cfg.CORS.Enabled {
		h = middlewares.CORS(api.cfg.CORS.AllowOrigins)(h)
	}
	return h
}
