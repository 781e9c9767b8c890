// Package client contains the session client's outbound building blocks.
//
// # Overview
//
// The package provides:
//  1. The identity API contract (see the Client interface): Verify, Login,
//     Register, Logout and UpdateProfile.
//  2. A JSON-over-HTTP implementation (see HTTPClient) that attaches the
//     bearer token and a request id, and classifies every failure.
//  3. Durable storage bootstrap (InitDatabase, RunMigrations, OpenStorage)
//     for the SQLite or Redis backed token slot.
//
// # Error Handling
//
// A non-2xx response becomes *RejectedError carrying the server's "error"
// field, or GenericRejection when there is none. A failed round trip wraps
// ErrUnavailable; a 2xx body that does not decode into a complete answer
// wraps ErrMalformed. IsTransport groups the latter two.
//
// Implementations hold no session state and never touch durable storage.
// All operations accept context.Context and honor cancellation.
package client
