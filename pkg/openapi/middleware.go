package openapi

import (
	"net/http"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middleware struct {
	router  routers.Router
	onError ErrorHandler
}

// NewOpenAPIMiddleware validates request parameters of documented routes.
// Request bodies are validated by the handlers once decoded.
func NewOpenAPIMiddleware(router routers.Router, onError ErrorHandler) func(http.Handler) http.Handler {
	h := middleware{
		router:  router,
		onError: onError,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, r, next)
		})
	}
}

func (m *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.Handler) {
	route, pathParams, err := m.router.FindRoute(r)
	if err != nil {
		next.ServeHTTP(w, r)
		return
	}

	err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			MultiError:         true,
			ExcludeRequestBody: true,
		},
	})
	switch err := err.(type) {
	case nil:
	case openapi3.MultiError:
		m.onError(w, r, validateError(err))
		return
	default:
		m.onError(w, r, errs.BadData("%s", err.Error()))
		return
	}
	next.ServeHTTP(w, r)
}
