package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrRequestValidate = errors.New("request validation")

const (
	ReasonBadData       = "MICROSERVICE_BAD_DATA"
	ReasonBadMethod     = "MICROSERVICE_BAD_METHOD"
	ReasonBadMetric     = "MICROSERVICE_BAD_METRIC"
	ReasonBadParameters = "MICROSERVICE_BAD_PARAMETERS"
	ReasonInternalError = "MICROSERVICE_INTERNAL_ERROR"
	ReasonRateLimited   = "MICROSERVICE_RATE_LIMITED"
)

// MicroserviceError is an error whose message is returned to the caller
// inside a failure envelope.
type MicroserviceError struct {
	Message    string
	StatusCode int
	Reason     string
}

func NewMicroserviceError(message string, statusCode int, reason string) *MicroserviceError {
	return &MicroserviceError{
		Message:    message,
		StatusCode: statusCode,
		Reason:     reason,
	}
}

func (e *MicroserviceError) Error() string {
	return e.Message
}

func BadData(format string, args ...interface{}) *MicroserviceError {
	return NewMicroserviceError(fmt.Sprintf(format, args...), http.StatusBadRequest, ReasonBadData)
}

func BadMethod(format string, args ...interface{}) *MicroserviceError {
	return NewMicroserviceError(fmt.Sprintf(format, args...), http.StatusBadRequest, ReasonBadMethod)
}

// AsMicroserviceError returns err as a MicroserviceError, wrapping unknown
// errors as internal errors.
func AsMicroserviceError(err error) *MicroserviceError {
	var e *MicroserviceError
	if errors.As(err, &e) {
		return e
	}
	var ve *ValidateError
	if errors.As(err, &ve) {
		return NewMicroserviceError(ve.Detail(), http.StatusBadRequest, ReasonBadData)
	}
	return NewMicroserviceError(err.Error(), http.StatusInternalServerError, ReasonInternalError)
}

type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func NewValidateFieldsError(err error, fields map[string]interface{}) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  fields,
	}
}

func (e *ValidateError) Error() string {
	return e.err.Error()
}

// Detail returns the error message followed by the invalid fields.
func (e *ValidateError) Detail() string {
	if len(e.Fields) == 0 {
		return e.Error()
	}
	b, err := json.Marshal(e.Fields)
	if err != nil {
		return e.Error()
	}
	return e.Error() + ": " + string(b)
}
