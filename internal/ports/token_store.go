package ports

import "context"

// TokenStore persists session tokens. Implementations never fail: storage
// errors are logged, a failed read reports the key as absent and a failed
// write is best effort.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
	Remove(ctx context.Context, key string)
}
