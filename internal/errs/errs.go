// Package errs defines custom error types and utilities.
//
// Its purpose is to give API clients meaningful, consistent error
// payloads (stable machine codes, field-level validation errors) while
// keeping internal failure detail out of responses.
package errs
