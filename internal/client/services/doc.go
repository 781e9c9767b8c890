// Package services contains application services for the session client.
//
// Manager owns the bearer token and the signed-in user. It sequences calls
// to the identity API, mirrors the token into durable storage and publishes
// read-only snapshots to subscribers.
package services
