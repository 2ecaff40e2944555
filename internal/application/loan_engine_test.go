package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/collection"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/memory"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

// countingStore records writes per key and can be told to fail.
type countingStore struct {
	*memory.Store
	mu       sync.Mutex
	writes   map[repository.CollectionKey]int
	failRead error
}

func (s *countingStore) Read(ctx context.Context, key repository.CollectionKey) ([]byte, error) {
	if s.failRead != nil {
		return nil, s.failRead
	}
	return s.Store.Read(ctx, key)
}

func (s *countingStore) Write(ctx context.Context, key repository.CollectionKey, data []byte) error {
	s.mu.Lock()
	s.writes[key]++
	s.mu.Unlock()
	return s.Store.Write(ctx, key, data)
}

func (s *countingStore) totalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.writes {
		n += c
	}
	return n
}

type fixture struct {
	store  *countingStore
	books  *collection.Repository[entity.Book]
	loans  *collection.Repository[entity.Loan]
	engine *application.LoanEngine
}

func givenEngine(t *testing.T, opts application.LoanEngineOptions, books []entity.Book, loans []entity.Loan) *fixture {
	t.Helper()
	ctx := context.Background()
	store := &countingStore{Store: memory.NewStore(), writes: map[repository.CollectionKey]int{}}
	f := &fixture{
		store: store,
		books: collection.NewBookRepository(store),
		loans: collection.NewLoanRepository(store),
	}
	require.NoError(t, f.books.SaveAll(ctx, books))
	require.NoError(t, f.loans.SaveAll(ctx, loans))
	store.writes = map[repository.CollectionKey]int{}

	seq := 0
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.NewID == nil {
		opts.NewID = func() string {
			seq++
			return fmt.Sprintf("loan-%d", seq)
		}
	}
	f.engine = application.NewLoanEngine(f.books, f.loans, opts)
	return f
}

func (f *fixture) book(t *testing.T, id string) entity.Book {
	t.Helper()
	books, err := f.books.All(context.Background())
	require.NoError(t, err)
	for _, b := range books {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("book %s not found", id)
	return entity.Book{}
}

func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	books, err := f.books.All(ctx)
	require.NoError(t, err)
	loans, err := f.loans.All(ctx)
	require.NoError(t, err)

	holders := map[string]int{}
	for _, l := range loans {
		if l.HoldsBook() {
			holders[l.BookID]++
		}
	}
	for _, b := range books {
		if b.Status == entity.BookLoaned {
			assert.Equal(t, 1, holders[b.ID], "loaned book %s must have exactly one holding loan", b.ID)
		} else {
			assert.Zero(t, holders[b.ID], "book %s is %s but a loan holds it", b.ID, b.Status)
		}
	}
}

func availableBooks(ids ...string) []entity.Book {
	out := make([]entity.Book, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Book{ID: id, Title: "Book " + id, Status: entity.BookAvailable})
	}
	return out
}

func activeLoan(id, userID, bookID string) entity.Loan {
	return entity.Loan{
		ID: id, UserID: userID, BookID: bookID,
		StartDate: fixedNow.AddDate(0, 0, -1),
		DueDate:   fixedNow.AddDate(0, 0, 13),
		Status:    entity.LoanActive,
	}
}

func Test_RequestLoan_AvailableBook_CreatesActiveLoan(t *testing.T) {
	// arrange
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)

	// act
	res, err := f.engine.RequestLoan(context.Background(), "u1", "b1")

	// assert
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotNil(t, res.Loan)
	assert.Equal(t, entity.LoanActive, res.Loan.Status)
	assert.Equal(t, "loan-1", res.Loan.ID)
	assert.Equal(t, fixedNow, res.Loan.StartDate)
	assert.Equal(t, 14*24*time.Hour, res.Loan.DueDate.Sub(res.Loan.StartDate))
	assert.Nil(t, res.Loan.ReturnDate)
	assert.Equal(t, "Loan created. Return by 15 March 2025.", res.Message)
	assert.Equal(t, entity.BookLoaned, f.book(t, "b1").Status)
	f.assertInvariant(t)
}

func Test_RequestLoan_LoanedBook_IsNotAvailable(t *testing.T) {
	// arrange
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)
	_, err := f.engine.RequestLoan(context.Background(), "u1", "b1")
	require.NoError(t, err)

	// act
	res, err := f.engine.RequestLoan(context.Background(), "u2", "b1")

	// assert
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, application.CodeBookNotAvailable, res.Code)
	assert.Nil(t, res.Loan)
	f.assertInvariant(t)
}

func Test_RequestLoan_Refusals(t *testing.T) {
	maintenance := entity.Book{ID: "b9", Status: entity.BookMaintenance}
	reserved := entity.Book{ID: "b8", Status: entity.BookReserved}

	testCases := []struct {
		name    string
		userID  string
		bookID  string
		books   []entity.Book
		loans   []entity.Loan
		code    application.ErrorCode
		message string
	}{
		{
			name:    "anonymous caller",
			userID:  "",
			bookID:  "b1",
			books:   availableBooks("b1"),
			code:    application.CodeNotLoggedIn,
			message: "You must be logged in to request a loan.",
		},
		{
			name:    "unknown book",
			userID:  "u1",
			bookID:  "nope",
			books:   availableBooks("b1"),
			code:    application.CodeBookNotFound,
			message: "The book you are trying to borrow does not exist.",
		},
		{
			name:   "book under maintenance",
			userID: "u1",
			bookID: "b9",
			books:  []entity.Book{maintenance},
			code:   application.CodeBookNotAvailable,
		},
		{
			name:   "reserved book",
			userID: "u1",
			bookID: "b8",
			books:  []entity.Book{reserved},
			code:   application.CodeBookNotAvailable,
		},
		{
			name:   "user at capacity",
			userID: "u1",
			bookID: "b7",
			books:  append(availableBooks("b7"), loanedBooks("b1", "b2", "b3")...),
			loans: []entity.Loan{
				activeLoan("l1", "u1", "b1"),
				activeLoan("l2", "u1", "b2"),
				activeLoan("l3", "u1", "b3"),
			},
			code:    application.CodeUserMaxCapacity,
			message: "You have reached the maximum of 3 active loans.",
		},
		{
			name:   "pending loans count against capacity",
			userID: "u1",
			bookID: "b7",
			books:  append(availableBooks("b3", "b7"), loanedBooks("b1", "b2")...),
			loans: []entity.Loan{
				activeLoan("l1", "u1", "b1"),
				activeLoan("l2", "u1", "b2"),
				pendingLoan("l3", "u1", "b3"),
			},
			code: application.CodeUserMaxCapacity,
		},
		{
			name:   "duplicate of an outstanding loan",
			userID: "u1",
			bookID: "b1",
			books:  availableBooks("b1"),
			loans: []entity.Loan{
				pendingLoan("l1", "u1", "b1"),
			},
			code:    application.CodeDuplicateActiveLoan,
			message: "You already have this book on loan.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			f := givenEngine(t, application.LoanEngineOptions{}, tc.books, tc.loans)

			// act
			res, err := f.engine.RequestLoan(context.Background(), tc.userID, tc.bookID)

			// assert
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tc.code, res.Code)
			assert.Nil(t, res.Loan)
			if tc.message != "" {
				assert.Equal(t, tc.message, res.Message)
			} else {
				assert.NotEmpty(t, res.Message)
			}
			assert.Zero(t, f.store.totalWrites(), "a refused request must not write")
		})
	}
}

func loanedBooks(ids ...string) []entity.Book {
	out := availableBooks(ids...)
	for i := range out {
		out[i].Status = entity.BookLoaned
	}
	return out
}

func pendingLoan(id, userID, bookID string) entity.Loan {
	l := activeLoan(id, userID, bookID)
	l.Status = entity.LoanPending
	return l
}

func Test_RequestLoan_ReturnedLoansDoNotCount(t *testing.T) {
	// arrange
	returned := activeLoan("l1", "u1", "b1")
	returned.Status = entity.LoanReturned
	rejected := pendingLoan("l2", "u1", "b1")
	rejected.Status = entity.LoanRejected
	f := givenEngine(t, application.LoanEngineOptions{MaxActive: 1}, availableBooks("b1"), []entity.Loan{returned, rejected})

	// act
	res, err := f.engine.RequestLoan(context.Background(), "u1", "b1")

	// assert
	require.NoError(t, err)
	assert.True(t, res.OK)
	f.assertInvariant(t)
}

func Test_RequestLoan_CapacityNeverExceeded(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1", "b2", "b3", "b4", "b5"), nil)

	// act
	var codes []application.ErrorCode
	for _, id := range []string{"b1", "b2", "b3", "b4", "b5"} {
		res, err := f.engine.RequestLoan(ctx, "u1", id)
		require.NoError(t, err)
		codes = append(codes, res.Code)
	}
	loans, err := f.engine.LoansByUser(ctx, "u1")

	// assert
	require.NoError(t, err)
	assert.Equal(t, []application.ErrorCode{"", "", "", application.CodeUserMaxCapacity, application.CodeUserMaxCapacity}, codes)
	assert.Len(t, loans, application.MaxActiveLoansPerUser)
	assert.Equal(t, entity.BookAvailable, f.book(t, "b4").Status)
	f.assertInvariant(t)
}

func Test_RequestLoan_DisabledLimits(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{DisableLimits: true}, availableBooks("b1", "b2", "b3", "b4"), nil)

	// act
	var oks int
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		res, err := f.engine.RequestLoan(ctx, "u1", id)
		require.NoError(t, err)
		if res.OK {
			oks++
		}
	}

	// assert
	assert.Equal(t, 4, oks)
	f.assertInvariant(t)
}

func Test_RequestLoan_CustomPeriodAndCapacity(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{LoanDays: 7, MaxActive: 1}, availableBooks("b1", "b2"), nil)

	// act
	first, err1 := f.engine.RequestLoan(ctx, "u1", "b1")
	second, err2 := f.engine.RequestLoan(ctx, "u1", "b2")

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.True(t, first.OK)
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), first.Loan.DueDate)
	assert.Equal(t, application.CodeUserMaxCapacity, second.Code)
	assert.Equal(t, "You have reached the maximum of 1 active loans.", second.Message)
}

func Test_RequestLoan_StoreFailureIsAnError(t *testing.T) {
	// arrange
	boom := errors.New("store down")
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)
	f.store.failRead = boom

	// act
	res, err := f.engine.RequestLoan(context.Background(), "u1", "b1")

	// assert
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.OK)
	assert.Empty(t, res.Code)
}

func Test_ReturnLoan_ActiveLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)
	created, err := f.engine.RequestLoan(ctx, "u1", "b1")
	require.NoError(t, err)

	// act
	res, err := f.engine.ReturnLoan(ctx, created.Loan.ID)

	// assert
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, entity.LoanReturned, res.Loan.Status)
	require.NotNil(t, res.Loan.ReturnDate)
	assert.Equal(t, fixedNow, *res.Loan.ReturnDate)
	assert.Equal(t, "Book returned. Thank you!", res.Message)
	assert.Equal(t, entity.BookAvailable, f.book(t, "b1").Status)
	f.assertInvariant(t)
}

func Test_ReturnLoan_Twice(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)
	created, err := f.engine.RequestLoan(ctx, "u1", "b1")
	require.NoError(t, err)
	_, err = f.engine.ReturnLoan(ctx, created.Loan.ID)
	require.NoError(t, err)
	loansBefore, _ := f.loans.All(ctx)
	booksBefore, _ := f.books.All(ctx)

	// act
	res, err := f.engine.ReturnLoan(ctx, created.Loan.ID)

	// assert
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, application.CodeLoanAlreadyReturned, res.Code)
	loansAfter, _ := f.loans.All(ctx)
	booksAfter, _ := f.books.All(ctx)
	assert.Equal(t, loansBefore, loansAfter)
	assert.Equal(t, booksBefore, booksAfter)
}

func Test_ReturnLoan_UnknownLoan(t *testing.T) {
	f := givenEngine(t, application.LoanEngineOptions{}, nil, nil)

	res, err := f.engine.ReturnLoan(context.Background(), "missing")

	require.NoError(t, err)
	assert.Equal(t, application.CodeLoanNotFound, res.Code)
	assert.Zero(t, f.store.totalWrites())
}

func Test_ReturnLoan_MissingBookIsTolerated(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b2"), []entity.Loan{activeLoan("l1", "u1", "gone")})

	// act
	res, err := f.engine.ReturnLoan(ctx, "l1")

	// assert
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 0, f.store.writes[repository.BooksKey])
	assert.Equal(t, 1, f.store.writes[repository.LoansKey])
}

func Test_RequestLoan_Concurrent_OneWinner(t *testing.T) {
	// arrange
	ctx := context.Background()
	f := givenEngine(t, application.LoanEngineOptions{}, availableBooks("b1"), nil)
	const callers = 16
	var wg sync.WaitGroup
	results := make([]application.LoanResult, callers)

	// act
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.engine.RequestLoan(ctx, fmt.Sprintf("u%d", i), "b1")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	// assert
	wins := 0
	for _, r := range results {
		if r.OK {
			wins++
		} else {
			assert.Equal(t, application.CodeBookNotAvailable, r.Code)
		}
	}
	assert.Equal(t, 1, wins)
	loans, err := f.engine.Loans(ctx)
	require.NoError(t, err)
	assert.Len(t, loans, 1)
	f.assertInvariant(t)
}
