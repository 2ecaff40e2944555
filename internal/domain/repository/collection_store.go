package repository

import (
	"context"
	"errors"
)

// CollectionKey names one of the persisted collections.
type CollectionKey string

const (
	BooksKey CollectionKey = "books"
	UsersKey CollectionKey = "users"
	LoansKey CollectionKey = "loans"
)

// ErrNotFound is returned by lookups that find no record.
var ErrNotFound = errors.New("not found")

// CollectionStore is the persistence collaborator: a key-value store that
// holds each collection as one JSON array. Read returns nil data and a nil
// error for a key that was never written.
type CollectionStore interface {
	Read(ctx context.Context, key CollectionKey) ([]byte, error)
	Write(ctx context.Context, key CollectionKey, data []byte) error
}

// CollectionDropper is implemented by stores that can forget a collection
// entirely, so the next Read reports it as never written.
type CollectionDropper interface {
	Drop(ctx context.Context, key CollectionKey) error
}

// AllKeys lists every persisted collection.
func AllKeys() []CollectionKey {
	return []CollectionKey{BooksKey, UsersKey, LoansKey}
}
