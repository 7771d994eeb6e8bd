package microservice

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/AminuIsrael/seldon-core/pkg/serializer"
	"github.com/go-playground/form"
)

const maxFormMemory = 32 << 20

var decoder = form.NewDecoder()

type jsonForm struct {
	JSON string `form:"json"`
}

type rawMessage struct {
	data    []byte
	msgpack bool
}

var ErrMissingPayload = errs.BadData("Can't find JSON in data")

// readMessage looks the request message up in the form field json, the
// query parameter json and the body, in that order.
func readMessage(r *http.Request) (*rawMessage, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := parseForm(r, mediaType); err != nil {
			return nil, err
		}
		var f jsonForm
		if err := decoder.Decode(&f, r.PostForm); err != nil {
			return nil, errs.BadData("invalid form: %v", err)
		}
		if f.JSON != "" {
			return &rawMessage{data: []byte(f.JSON)}, nil
		}
	}

	var q jsonForm
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		return nil, errs.BadData("invalid query: %v", err)
	}
	if q.JSON != "" {
		return &rawMessage{data: []byte(q.JSON)}, nil
	}

	if r.Body == nil {
		return nil, ErrMissingPayload
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	if len(body) == 0 {
		return nil, ErrMissingPayload
	}
	return &rawMessage{data: body, msgpack: mediaType == constants.ContentTypeMsgPack}, nil
}

func parseForm(r *http.Request, mediaType string) error {
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errs.NewMicroserviceError("request body too large", http.StatusRequestEntityTooLarge, errs.ReasonBadData)
	}
	return errs.BadData("failed to read request: %v", err)
}

// decode unmarshals the message into v. validate receives the generic JSON
// form of the message before it is bound to v.
func (m *rawMessage) decode(v any, validate func(generic any) error) error {
	data := m.data
	if m.msgpack {
		if err := serializer.MsgPack.Deserialize(m.data, v); err != nil {
			return errs.BadData("Invalid msgpack: %v", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return errs.BadData("Invalid msgpack: %v", err)
		}
		data = b
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return errs.BadData("Invalid JSON: %v", err)
	}
	if validate != nil {
		if err := validate(generic); err != nil {
			return err
		}
	}
	if !m.msgpack {
		if err := json.Unmarshal(data, v); err != nil {
			return errs.BadData("Invalid JSON: %v", err)
		}
	}
	return nil
}
