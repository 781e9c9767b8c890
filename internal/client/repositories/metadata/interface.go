package metadata

import (
	"context"
)

// Repository is a small durable key/value store. Get returns (nil, nil)
// when the key is absent; Delete of an absent key is not an error. Clear
// removes every key the repository owns.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
