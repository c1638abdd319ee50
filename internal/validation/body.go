package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/go-playground/validator/v10"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required,max=200"`)
//   - Implement Validate() error that calls Struct(dto)
//   - Return CustomValidationErrors for rules tags cannot express
type Validatable interface {
	Validate() error
}

// CustomValidationError represents a single validation issue for a specific field.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// ParseAndValidate decodes a JSON body into payload and validates it.
//
// payload must be a pointer. On any violation a 400 *errs.HTTPError is
// returned carrying every field error in declaration order, with the
// message naming the first one. payload must be discarded on error.
func ParseAndValidate(body []byte, payload Validatable) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errs.NewBadRequestError("Request body is required", true, nil, nil, nil)
	}

	if err := json.Unmarshal(body, payload); err != nil {
		return decodeError(err)
	}

	if err := payload.Validate(); err != nil {
		return toHTTPError(extractValidationError(err))
	}

	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return toHTTPError([]errs.FieldError{{
			Field: typeErr.Field,
			Error: fmt.Sprintf("must be of type %s", jsonKind(typeErr.Type)),
		}})
	}

	return errs.NewBadRequestError("Invalid JSON body", true, nil, nil, nil)
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func toHTTPError(fieldErrors []errs.FieldError) error {
	if len(fieldErrors) == 0 {
		return errs.NewBadRequestError("Validation failed", true, nil, nil, nil)
	}

	first := fieldErrors[0]
	message := fmt.Sprintf("Validation failed: %s %s", first.Field, first.Error)

	return errs.NewBadRequestError(message, true, nil, fieldErrors, nil)
}

func extractValidationError(err error) []errs.FieldError {
	var fieldErrors []errs.FieldError

	var customValidationErrors CustomValidationErrors
	if errors.As(err, &customValidationErrors) {
		for _, err := range customValidationErrors {
			fieldErrors = append(fieldErrors, errs.FieldError{
				Field: err.Field,
				Error: err.Message,
			})
		}
		return fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	for _, err := range validationErrors {
		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: err.Field(),
			Error: fieldMessage(err),
		})
	}

	return fieldErrors
}

func fieldMessage(err validator.FieldError) string {
	kind := err.Type().Kind()
	if kind == reflect.Ptr {
		kind = err.Type().Elem().Kind()
	}

	switch err.Tag() {
	case "required":
		return "is required"

	case "min":
		// min on strings is a length, on numbers a value.
		if kind == reflect.String {
			return fmt.Sprintf("must be at least %s characters", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())

	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", err.Param())
		}
		return fmt.Sprintf("must not exceed %s", err.Param())

	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())

	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())

	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	case "uuid":
		return "must be a valid UUID"

	case "sku":
		return "must contain only letters, numbers, hyphens and underscores"

	default:
		if err.Param() != "" {
			return fmt.Sprintf("failed %s:%s", err.Tag(), err.Param())
		}
		return fmt.Sprintf("failed %s", err.Tag())
	}
}
