package accesslog

import (
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AminuIsrael/seldon-core/utils"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Entry is one served request.
type Entry struct {
	ClientIP string
	Latency  time.Duration
	Request  Request
	Response Response
}

type Request struct {
	Method string
	Path   string
	Proto  string
	// Encoding is the media type of the request message: json, msgpack or form
	Encoding  string
	UserAgent string
}

type Response struct {
	Status   int
	Size     int
	Encoding string
}

// clientIP prefers the first X-Forwarded-For hop set by the ingress.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func encoding(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return "form"
	}
	_, sub, _ := strings.Cut(mediaType, "/")
	return sub
}

func NewEntry(r *http.Request) *Entry {
	return &Entry{
		ClientIP: clientIP(r),
		Request: Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Proto:     r.Proto,
			Encoding:  encoding(r.Header.Get("Content-Type")),
			UserAgent: r.UserAgent(),
		},
	}
}

func (m *Entry) MarshalZerologObject(e *zerolog.Event) {
	e.Str("client_ip", m.ClientIP)
	e.Dict("request", zerolog.Dict().
		Str("method", m.Request.Method).
		Str("path", m.Request.Path).
		Str("proto", m.Request.Proto).
		Str("encoding", m.Request.Encoding).
		Str("user_agent", m.Request.UserAgent),
	)
	e.Dict("response", zerolog.Dict().
		Int("status", m.Response.Status).
		Int("size", m.Response.Size).
		Str("encoding", m.Response.Encoding),
	)
	e.Int64("latency", m.Latency.Milliseconds())

	sc := trace.SpanContextFromContext(e.GetCtx())
	if sc.IsValid() {
		e.Str("trace_id", sc.TraceID().String())
	}
}

func (m *Entry) String() string {
	return fmt.Sprintf(`%s "%s %s %s" %s %d %s %d %dms "%s"`,
		m.ClientIP,
		m.Request.Method,
		m.Request.Path,
		m.Request.Proto,
		utils.DefaultIfZero(m.Request.Encoding, "-"),
		m.Response.Status,
		utils.DefaultIfZero(m.Response.Encoding, "-"),
		m.Response.Size,
		m.Latency.Milliseconds(),
		utils.DefaultIfZero(m.Request.UserAgent, "-"),
	)
}
