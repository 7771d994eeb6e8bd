package response

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/serializer"
)

func JSON(w http.ResponseWriter, code int, data interface{}) {
	_json(w, code, data, false)
}

// _json encodes data before writing the status line, so an encoding panic
// can still be answered with an error status.
func _json(w http.ResponseWriter, code int, data interface{}, pretty bool) {
	var bytes []byte
	switch v := data.(type) {
	case nil:
	case string:
		bytes = []byte(v)
	default:
		var err error
		if pretty {
			bytes, err = json.MarshalIndent(data, "", "  ")
		} else {
			bytes, err = json.Marshal(data)
		}
		if err != nil {
			panic(err)
		}
	}

	setDefaultHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if bytes == nil {
		return
	}
	if _, err := w.Write(bytes); err != nil {
		panic(err)
	}
}

func MsgPack(w http.ResponseWriter, code int, data interface{}) {
	bytes, err := serializer.MsgPack.Serialize(data)
	if err != nil {
		panic(err)
	}
	setDefaultHeaders(w)
	w.Header().Set("Content-Type", constants.ContentTypeMsgPack)
	w.WriteHeader(code)
	_, err = w.Write(bytes)
	if err != nil {
		panic(err)
	}
}

func Text(w http.ResponseWriter, code int, body string) {
	setDefaultHeaders(w)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, err := w.Write([]byte(body))
	if err != nil {
		panic(err)
	}
}

// Negotiate writes data as msgpack when the request accepts it, as JSON
// otherwise.
func Negotiate(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	if AcceptsMsgPack(r) {
		MsgPack(w, code, data)
		return
	}
	JSON(w, code, data)
}

// Error writes the failure envelope of err with its HTTP status.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e := errs.AsMicroserviceError(err)
	Negotiate(w, r, e.StatusCode, message.NewFailure(e.Message, e.Reason))
}

func AcceptsMsgPack(r *http.Request) bool {
	if r == nil {
		return false
	}
	for _, accept := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(accept))
		if err == nil && mediaType == constants.ContentTypeMsgPack {
			return true
		}
	}
	return false
}

func setDefaultHeaders(w http.ResponseWriter) {
	for _, header := range constants.DefaultResponseHeaders {
		w.Header().Set(header.Name, header.Value)
	}
}
