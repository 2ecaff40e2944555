package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/collection"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/memory"
)

type seedFixture struct {
	books *collection.Repository[entity.Book]
	users *collection.Repository[entity.User]
	loans *collection.Repository[entity.Loan]
}

func givenEmptyCollections() seedFixture {
	store := memory.NewStore()
	return seedFixture{
		books: collection.NewBookRepository(store),
		users: collection.NewUserRepository(store),
		loans: collection.NewLoanRepository(store),
	}
}

func (f seedFixture) seed(t *testing.T) application.SeedReport {
	t.Helper()
	rep, err := application.SeedIfEmpty(context.Background(), f.books, f.users, f.loans, fixedNow, nil)
	require.NoError(t, err)
	return rep
}

func Test_SeedIfEmpty_FreshStore(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEmptyCollections()

	// act
	rep := f.seed(t)

	// assert
	assert.Equal(t, application.SeedReport{Books: true, Users: true, Loans: true}, rep)
	books, _ := f.books.All(ctx)
	users, _ := f.users.All(ctx)
	loans, _ := f.loans.All(ctx)
	assert.Len(t, books, 8)
	assert.Len(t, users, 3)
	require.Len(t, loans, 1)
	assert.Equal(t, "b2", loans[0].BookID)
	assert.Equal(t, entity.LoanActive, loans[0].Status)

	fx := &fixture{books: f.books, loans: f.loans}
	fx.assertInvariant(t)
}

func Test_SeedIfEmpty_IsIdempotent(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEmptyCollections()
	f.seed(t)
	require.NoError(t, f.users.SaveAll(ctx, []entity.User{{ID: "only", Email: "only@libra.dev", Role: entity.RoleAdmin}}))

	// act
	rep := f.seed(t)

	// assert
	assert.Equal(t, application.SeedReport{}, rep)
	users, _ := f.users.All(ctx)
	assert.Len(t, users, 1)
}

func Test_SeedIfEmpty_BooksOnlyKeepsInvariant(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEmptyCollections()
	require.NoError(t, f.loans.SaveAll(ctx, []entity.Loan{activeLoan("x", "u9", "elsewhere")}))

	// act
	rep := f.seed(t)

	// assert
	assert.True(t, rep.Books)
	assert.False(t, rep.Loans)
	books, _ := f.books.All(ctx)
	for _, b := range books {
		assert.Equal(t, entity.BookAvailable, b.Status, b.ID)
	}
}
