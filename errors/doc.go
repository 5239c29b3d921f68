// Package errors defines the structured error type returned by streamkit's
// HTTP endpoints, with a machine-readable code and an HTTP status.
package errors
