package pipeline

import (
	"net/http"

	"github.com/deppfellow/produto-service/internal/errs"
)

// PaginationMeta is attached to list responses.
type PaginationMeta struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Result is what a handler returns on success.
type Result struct {
	Status     int
	Data       any
	Pagination *PaginationMeta
}

// OK is a 200 result.
func OK(data any) *Result {
	return &Result{Status: http.StatusOK, Data: data}
}

// Created is a 201 result.
func Created(data any) *Result {
	return &Result{Status: http.StatusCreated, Data: data}
}

// Message is a 200 result whose data is {"message": msg}.
func Message(msg string) *Result {
	return OK(map[string]string{"message": msg})
}

// Paginated is a 200 list result carrying its window and total.
func Paginated(data any, skip, limit, total int) *Result {
	return &Result{
		Status:     http.StatusOK,
		Data:       data,
		Pagination: &PaginationMeta{Skip: skip, Limit: limit, Total: total},
	}
}

// Envelope is the response body of every invocation.
//
//	{"status": 200, "data": {...}, "pagination": {...}}
//	{"status": 404, "code": "NOT_FOUND", "error": "Product not found: <id>"}
type Envelope struct {
	Status     int               `json:"status"`
	Data       any               `json:"data,omitempty"`
	Pagination *PaginationMeta   `json:"pagination,omitempty"`
	Code       string            `json:"code,omitempty"`
	Error      string            `json:"error,omitempty"`
	Errors     []errs.FieldError `json:"errors,omitempty"`
}

// Success builds the envelope for r.
func Success(r *Result) Envelope {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	return Envelope{Status: status, Data: r.Data, Pagination: r.Pagination}
}

// Failure builds the envelope for e.
func Failure(e *errs.HTTPError) Envelope {
	return Envelope{
		Status: e.Status,
		Code:   e.Code,
		Error:  e.Message,
		Errors: e.Errors,
	}
}

// Failed reports whether the envelope carries an error.
func (e Envelope) Failed() bool {
	return e.Status >= http.StatusBadRequest
}
