package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/AminuIsrael/seldon-core/pkg/errs"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

var validationErr = errors.New("request validation")

// newValidator names fields by their json tag so reported paths match the
// message a client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the validate tags of v. Failures are returned as an
// errs.ValidateError whose fields mirror the nesting of v.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	validateErr := errs.NewValidateError(validationErr)
	for _, fe := range fieldErrs {
		// the first element is the name of the validated type
		path := strings.Split(fe.Namespace(), ".")[1:]
		node := validateErr.Fields
		for _, name := range path[:len(path)-1] {
			child, ok := node[name].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[name] = child
			}
			node = child
		}
		node[path[len(path)-1]] = formatError(fe)
	}
	return validateErr
}

func formatError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field missing"
	case "oneof":
		return fmt.Sprintf("invalid value: %v, expected one of %s", fe.Value(), fe.Param())
	case "gt":
		return "value must be > " + fe.Param()
	case "gte":
		return "value must be >= " + fe.Param()
	case "lt":
		return "value must be < " + fe.Param()
	case "lte":
		return "value must be <= " + fe.Param()
	case "min":
		return "length must be at least " + fe.Param()
	}
	return fe.Error()
}
