// Package service implements the application's business logic.
//
// Services sit between handlers and repositories: they own the rules
// (credential checks, token rotation) and delegate persistence to the
// repository layer.
package service
