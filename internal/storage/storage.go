// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
)

// Storage is the key-value persistence capability used by the stores.
// A key holds either a set of strings or a boolean flag.
type Storage interface {
	StringSet(ctx context.Context, key string) ([]string, error)
	PutStringSet(ctx context.Context, key string, members []string) error
	Bool(ctx context.Context, key string) (bool, error)
	PutBool(ctx context.Context, key string, value bool) error

	MarkSeen(ctx context.Context, source, guid string) error
	IsSeen(ctx context.Context, source, guid string) (bool, error)

	Close() error
}
