package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
)

// LoanRepository reads and writes the loans collection as a whole.
type LoanRepository interface {
	All(ctx context.Context) ([]entity.Loan, error)
	SaveAll(ctx context.Context, loans []entity.Loan) error
}
