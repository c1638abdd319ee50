package validation

import (
	"fmt"
	"strings"

	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/google/uuid"
)

// RequireParam returns the named path parameter or a 400 when it is blank.
func RequireParam(params map[string]string, name string) (string, error) {
	value := strings.TrimSpace(params[name])
	if value == "" {
		return "", errs.NewBadRequestError(fmt.Sprintf("%s is required", name), true, nil, nil, nil)
	}
	return value, nil
}

// ParseUUIDParam coerces the named path parameter into a UUID.
func ParseUUIDParam(params map[string]string, name string) (uuid.UUID, error) {
	value, err := RequireParam(params, name)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError(fmt.Sprintf("Invalid %s format", name), true, nil, nil, nil)
	}

	return id, nil
}
