package storage

import (
	"context"
	"errors"
)

// Storage is a flat key/value store standing in for browser storage.
// Values are opaque bytes; callers own their encoding.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists every key that starts with prefix. An empty prefix lists everything.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Error definitions
var (
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded and ErrUnavailable are storage failures that must reach the caller
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	ErrUnavailable   = errors.New("storage: unavailable")
)

// IsFailure reports whether err is a storage failure (as opposed to a plain miss)
func IsFailure(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrUnavailable)
}
