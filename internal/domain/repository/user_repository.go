package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
)

// UserRepository reads and writes the users collection as a whole.
type UserRepository interface {
	All(ctx context.Context) ([]entity.User, error)
	SaveAll(ctx context.Context, users []entity.User) error
}
