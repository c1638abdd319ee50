package pipeline

import (
	"context"
	"errors"

	"github.com/deppfellow/produto-service/internal/database"
	"github.com/deppfellow/produto-service/internal/errs"
	"github.com/deppfellow/produto-service/internal/sqlerr"
)

// Classify maps any error onto the taxonomy. It never returns nil.
//
//  1. *errs.HTTPError anywhere in the chain: unchanged
//  2. *errs.DomainError: 400 or 409
//  3. deadline or cancellation: 503
//  4. database driver errors: see sqlerr.HandleError
//  5. anything else: 500
func Classify(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	if domainErr, ok := errs.AsDomainError(err); ok {
		return domainErr.ToHTTPError()
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.NewServiceUnavailableError(database.UnavailableMessage)
	}

	if errors.As(sqlerr.HandleError(err), &httpErr) {
		return httpErr
	}

	return errs.NewInternalServerError()
}
