package devicestore

import "context"

// Store is the device-local key-value store that survives process restarts.
// Reads report found=false for absent keys instead of an error.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}
