package validation

import (
	"strconv"
	"strings"

	"github.com/deppfellow/produto-service/internal/errs"
)

const (
	DefaultSkip  = 0
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Pagination is the validated skip/limit window of a list request.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// ParsePagination reads `skip` and `limit` from the query string.
//
// skip is checked before limit and the first violation is returned.
// Absent or blank values take the defaults.
func ParsePagination(query map[string]string) (Pagination, error) {
	p := Pagination{Skip: DefaultSkip, Limit: DefaultLimit}

	if raw := strings.TrimSpace(query["skip"]); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return Pagination{}, errs.NewBadRequestError("skip must be an integer", true, nil, nil, nil)
		}
		p.Skip = skip
	}
	if p.Skip < 0 {
		return Pagination{}, errs.NewBadRequestError("skip must be >= 0", true, nil, nil, nil)
	}

	if raw := strings.TrimSpace(query["limit"]); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Pagination{}, errs.NewBadRequestError("limit must be an integer", true, nil, nil, nil)
		}
		p.Limit = limit
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return Pagination{}, errs.NewBadRequestError("limit must be between 1 and 1000", true, nil, nil, nil)
	}

	return p, nil
}
