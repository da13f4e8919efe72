// Package sqlerr translates database failures into API errors.
//
// It parses cryptic driver error codes (e.g. a foreign key violation)
// into user-friendly errs values, and maps the gateway's availability
// errors onto a generic 503 so connection internals never leak to
// clients.
package sqlerr
