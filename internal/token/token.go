// Package token implements the service's credential primitives.
//
// Access tokens use a compact three-segment format: a base64url header,
// a base64url JSON claims payload, and a base64url HMAC-SHA256
// signature over the first two segments. The format is a fixed wire
// contract; tokens minted by previous deployments of the service must
// keep verifying.
//
// Refresh tokens are opaque high-entropy strings. Only a SHA-256
// fingerprint is persisted, so a database leak does not leak usable
// credentials.
package token
