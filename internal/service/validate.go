package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError maps request fields (JSON names) to problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func iataValidation(fl validator.FieldLevel) bool {
	return iataPattern.MatchString(fl.Field().String())
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("iata", iataValidation); err != nil {
		panic(fmt.Sprintf("register iata validation: %v", err))
	}
	return v
}

// describe turns validator errors into a ValidationError.
func describe(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate request: %w", err)
	}
	out := &ValidationError{Fields: map[string]string{}}
	for _, fe := range ve {
		field := fe.Field()
		if _, dup := out.Fields[field]; dup {
			continue
		}
		out.Fields[field] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return "accepts at most " + fe.Param() + " entries"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "iata":
		return fmt.Sprintf("%q is not an IATA airport code", fe.Value())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
