package domain

import (
	"context"
	"errors"
)

// Fixed storage keys, one JSON blob each
const (
	ListStorageKey        = "animetrack:list"
	PreferencesStorageKey = "animetrack:preferences"
)

// ErrNotFound is returned by a BlobStore when a key has never been written
var ErrNotFound = errors.New("not found")

// BlobStore defines durable key-value storage for serialized state
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
