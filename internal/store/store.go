package store

import "context"

// Store is the narrow artifact persistence interface consumed by the
// pipeline's memoizing stage runner. Implementations must be safe for
// concurrent use.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
