// Package metadata implements the client's durable key/value storage.
//
// The session token lives here under a single well-known key. Two backends
// share the Repository contract:
//
//   - SQLiteRepository: a `metadata(key, value)` table in the local database
//     created by the embedded goose migrations.
//   - RedisRepository: string keys under a configurable prefix, for clients
//     that run without a writable local disk.
package metadata
