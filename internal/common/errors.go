// Package common defines shared constants and sentinel errors used across
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

// ErrUnknownStorageBackend is returned for an unsupported storage backend name.
var ErrUnknownStorageBackend = errors.New("unknown storage backend")
