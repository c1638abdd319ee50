package errs

import "errors"

// DomainKind classifies a failure raised by the service layer.
type DomainKind string

const (
	// KindValidation means the input broke a domain validation rule (400).
	KindValidation DomainKind = "validation"

	// KindBusinessRule means a domain invariant would be violated (409).
	KindBusinessRule DomainKind = "business_rule"
)

// DomainError is a service-layer failure. It has no HTTP shape of its own;
// ToHTTPError performs the mapping.
type DomainError struct {
	Kind    DomainKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationFailure reports input the domain refuses to process.
func NewValidationFailure(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewBusinessRuleViolation reports a request that conflicts with existing state.
func NewBusinessRuleViolation(message string) *DomainError {
	return &DomainError{Kind: KindBusinessRule, Message: message}
}

// ToHTTPError maps a domain failure onto the taxonomy.
// Unknown kinds are internal errors.
func (e *DomainError) ToHTTPError() *HTTPError {
	switch e.Kind {
	case KindValidation:
		return NewBadRequestError(e.Message, true, nil, nil, nil)
	case KindBusinessRule:
		return NewConflictError(e.Message, true, nil)
	default:
		return NewInternalServerError()
	}
}

// AsDomainError unwraps err into a *DomainError if the chain holds one.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
