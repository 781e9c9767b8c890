// Package common contains shared constants and sentinel errors used across
// the client components.
package common

// TokenStorageKey is the single well-known key under which the bearer token
// is kept in durable storage. Only the session manager writes it.
const TokenStorageKey = "token"

// AuthorizationHeaderName carries the bearer token on outbound requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName carries a per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"
