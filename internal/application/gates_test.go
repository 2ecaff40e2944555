package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
)

func Test_IsAvailable(t *testing.T) {
	testCases := []struct {
		status entity.BookStatus
		want   bool
	}{
		{entity.BookAvailable, true},
		{entity.BookLoaned, false},
		{entity.BookReserved, false},
		{entity.BookMaintenance, false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, application.IsAvailable(entity.Book{Status: tc.status}))
		})
	}
}

func Test_MarkLoanedAndAvailable(t *testing.T) {
	// arrange
	b := entity.Book{ID: "b1", Status: entity.BookAvailable}

	// act & assert
	application.MarkLoaned(&b)
	assert.Equal(t, entity.BookLoaned, b.Status)
	application.MarkAvailable(&b)
	assert.Equal(t, entity.BookAvailable, b.Status)
}

func Test_CapacityGate(t *testing.T) {
	// arrange
	returned := activeLoan("l3", "u1", "b3")
	returned.Status = entity.LoanReturned
	loans := []entity.Loan{
		activeLoan("l1", "u1", "b1"),
		pendingLoan("l2", "u1", "b2"),
		returned,
		activeLoan("l4", "u2", "b4"),
	}

	// act & assert
	assert.Equal(t, 2, application.ActiveLoanCount("u1", loans))
	assert.Equal(t, 1, application.ActiveLoanCount("u2", loans))
	assert.Equal(t, 0, application.ActiveLoanCount("u3", loans))
	assert.True(t, application.HasActiveLoanForBook("u1", "b1", loans))
	assert.True(t, application.HasActiveLoanForBook("u1", "b2", loans))
	assert.False(t, application.HasActiveLoanForBook("u1", "b3", loans))
	assert.False(t, application.HasActiveLoanForBook("u2", "b1", loans))
}
