package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/AminuIsrael/seldon-core/pkg/accesslog"
	"github.com/AminuIsrael/seldon-core/pkg/http/middlewares"
	"github.com/AminuIsrael/seldon-core/pkg/http/response"
	"github.com/AminuIsrael/seldon-core/status/health"
	"github.com/AminuIsrael/seldon-core/utils"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const checkTimeout = 5 * time.Second

type API struct {
	startAt        time.Time
	debugEndpoints bool
	tracing        bool
	unit           UnitStats
	accessLogger   accesslog.AccessLogger
	indicators     []*health.Indicator
}

func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	resp := StatusResponse{
		UpTime: time.Since(api.startAt).Round(time.Second).String(),
		Runtime: RuntimeStats{
			Go:         runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
		},
		Memory: MemoryStats{
			Alloc:       fmt.Sprintf("%.2f MiB", BytesToMiB(stats.Alloc)),
			Sys:         fmt.Sprintf("%.2f MiB", BytesToMiB(stats.Sys)),
			HeapAlloc:   fmt.Sprintf("%.2f MiB", BytesToMiB(stats.HeapAlloc)),
			HeapObjects: int64(stats.HeapObjects),
			GC:          int64(stats.NumGC),
		},
		Unit: api.unit,
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     health.StatusUp,
		Components: make(map[string]HealthResult),
	}
	for _, check := range api.indicators {
		res := HealthResult{
			Status: health.StatusUp,
			Error:  nil,
		}
		err := check.Check(ctx)
		if err != nil {
			resp.Status = health.StatusDown

			res.Status = health.StatusDown
			res.Error = utils.Pointer(err.Error())
		}
		resp.Components[check.Name] = res
	}

	if resp.Status != health.StatusUp {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	if api.accessLogger != nil {
		r.Use(accesslog.NewMiddleware(api.accessLogger))
	}

	if api.tracing {
		r.Use(otelhttp.NewMiddleware("api.status"))
	}
	r.Use(middlewares.Recover)

	r.HandleFunc("/", api.Index).Methods("GET")
	r.HandleFunc("/health", api.Health).Methods("GET")

	if api.debugEndpoints {
		r.HandleFunc("/debug/pprof/profile", pprof.Profile).Methods("GET")
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol).Methods("GET")
		r.HandleFunc("/debug/pprof/trace", pprof.Trace).Methods("GET")
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline).Methods("GET")
		r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index).Methods("GET")
	}

	return r
}
