// Package errs defines the error taxonomy shared by every layer of the service.
//
// HTTPError is the single error shape that reaches the client: a status code,
// a machine-friendly code and a human message. DomainError is what the service
// layer raises; it carries no HTTP shape and is classified by the pipeline.
package errs
