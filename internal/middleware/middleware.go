// Package middleware holds the echo middlewares of the local HTTP
// transport (`produto serve`).
//
// Authentication is not a middleware: it is a pipeline stage so the
// Lambda entrypoint and the HTTP server enforce it identically.
package middleware
