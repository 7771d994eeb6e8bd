package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/http/response"
	"go.uber.org/zap"
)

// Recover turns a panic in next into a MICROSERVICE_INTERNAL_ERROR response.
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			e := recover()
			if e == nil {
				return
			}
			if e == http.ErrAbortHandler {
				panic(e)
			}
			zap.S().Named("http").Errorw("panic recovered",
				"path", r.URL.Path,
				"panic", fmt.Sprint(e),
				"stack", string(debug.Stack()),
			)
			response.Error(w, r, errs.NewMicroserviceError("internal error", http.StatusInternalServerError, errs.ReasonInternalError))
		}()

		next.ServeHTTP(w, r)
	})
}
