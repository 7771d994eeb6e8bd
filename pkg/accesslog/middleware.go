package accesslog

import (
	"net/http"
	"time"
)

// NewMiddleware logs every request served by the wrapped handler.
func NewMiddleware(logger AccessLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := NewEntry(r)
			start := time.Now()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry.Latency = time.Since(start)
			entry.Response.Status = rec.status
			entry.Response.Size = rec.size
			entry.Response.Encoding = encoding(rec.Header().Get("Content-Type"))
			logger.Log(r.Context(), entry)
		})
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *recorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
