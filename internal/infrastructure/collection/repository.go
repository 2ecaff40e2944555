package collection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
)

// Repository adapts a CollectionStore to a typed, whole-collection
// repository. Each call is one store round trip; nothing is cached.
type Repository[T any] struct {
	store repository.CollectionStore
	key   repository.CollectionKey
}

func New[T any](store repository.CollectionStore, key repository.CollectionKey) *Repository[T] {
	return &Repository[T]{store: store, key: key}
}

// All decodes the stored array. A missing key yields an empty slice.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	raw, err := r.store.Read(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.key, err)
	}
	if len(raw) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveAll replaces the stored array.
func (r *Repository[T]) SaveAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.store.Write(ctx, r.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}

// IsEmpty reports whether the collection holds no records.
func (r *Repository[T]) IsEmpty(ctx context.Context) (bool, error) {
	items, err := r.All(ctx)
	if err != nil {
		return false, err
	}
	return len(items) == 0, nil
}

func NewBookRepository(store repository.CollectionStore) *Repository[entity.Book] {
	return New[entity.Book](store, repository.BooksKey)
}

func NewUserRepository(store repository.CollectionStore) *Repository[entity.User] {
	return New[entity.User](store, repository.UsersKey)
}

func NewLoanRepository(store repository.CollectionStore) *Repository[entity.Loan] {
	return New[entity.Loan](store, repository.LoansKey)
}

var (
	_ repository.BookRepository = (*Repository[entity.Book])(nil)
	_ repository.UserRepository = (*Repository[entity.User])(nil)
	_ repository.LoanRepository = (*Repository[entity.Loan])(nil)
)
