// Package sqlerr specifically handles database driver errors.
//
// It parses cryptic error codes from the database driver and
// converts them into the service's error taxonomy (e.g., converting
// a "unique violation" on sku into a 409 Conflict, or a dropped
// connection into a 503)
package sqlerr
