// Package lib groups integrations that do not fit strictly into other layers.
//
// It contains background job processing (Redis/Asynq) and the email client
// (Resend) used for low stock alerts.
package lib
