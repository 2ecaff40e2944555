package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
)

// BookRepository reads and writes the books collection as a whole.
type BookRepository interface {
	All(ctx context.Context) ([]entity.Book, error)
	SaveAll(ctx context.Context, books []entity.Book) error
}
