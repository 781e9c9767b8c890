// Package cli provides the interactive command-line session client.
//
// It wires configuration, durable token storage, the identity API client
// and the session manager, then serves a REPL that renders one of four
// views: loading, login, register or dashboard. Forms are validated locally
// before anything reaches the network, and commands are refused while a
// request is in flight.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
