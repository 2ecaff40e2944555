package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

const (
	LoanDays              = 14
	MaxActiveLoansPerUser = 3
)

// LoanEngineOptions tunes a LoanEngine. Zero values fall back to the
// library defaults.
type LoanEngineOptions struct {
	LoanDays  int
	MaxActive int
	// ApprovalWorkflow makes new loans pending until an admin approves them.
	ApprovalWorkflow bool
	// DisableLimits skips the capacity and duplicate checks.
	DisableLimits bool

	// Lock serializes the engine with other writers of the books collection.
	// Nil gives the engine a private mutex.
	Lock sync.Locker

	Now    func() time.Time
	NewID  func() string
	Logger *logrus.Logger
}

// LoanEngine validates and applies loan transitions against the books and
// loans collections. Every mutating call runs read, decide and write under
// one lock, so callers sharing an engine never interleave. It does not
// coordinate separate processes sharing a store.
type LoanEngine struct {
	books repo.BookRepository
	loans repo.LoanRepository

	loanDays      int
	maxActive     int
	approval      bool
	disableLimits bool
	now           func() time.Time
	newID         func() string
	logger        *logrus.Logger

	mu sync.Locker
}

func NewLoanEngine(books repo.BookRepository, loans repo.LoanRepository, opts LoanEngineOptions) *LoanEngine {
	e := &LoanEngine{
		books:         books,
		loans:         loans,
		loanDays:      opts.LoanDays,
		maxActive:     opts.MaxActive,
		approval:      opts.ApprovalWorkflow,
		disableLimits: opts.DisableLimits,
		now:           opts.Now,
		newID:         opts.NewID,
		logger:        opts.Logger,
		mu:            opts.Lock,
	}
	if e.mu == nil {
		e.mu = &sync.Mutex{}
	}
	if e.loanDays <= 0 {
		e.loanDays = LoanDays
	}
	if e.maxActive <= 0 {
		e.maxActive = MaxActiveLoansPerUser
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = helpers.NewDiscardLogger()
	}
	return e
}

// ApprovalWorkflow reports whether new loans start out pending.
func (e *LoanEngine) ApprovalWorkflow() bool { return e.approval }

// RequestLoan lends bookID to userID. Checks run in a fixed order and the
// first failing one decides the result code.
func (e *LoanEngine) RequestLoan(ctx context.Context, userID, bookID string) (LoanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requestLoan(ctx, userID, bookID)
}

// RequestLoans requests each book in order on behalf of userID. Later
// requests see the loans created by earlier ones, so the capacity limit
// holds across the batch.
func (e *LoanEngine) RequestLoans(ctx context.Context, userID string, bookIDs []string) ([]LoanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]LoanResult, 0, len(bookIDs))
	for _, id := range bookIDs {
		res, err := e.requestLoan(ctx, userID, id)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *LoanEngine) requestLoan(ctx context.Context, userID, bookID string) (LoanResult, error) {
	if userID == "" {
		return e.refused("request", e.refuse(CodeNotLoggedIn), logrus.Fields{"book_id": bookID}), nil
	}
	fields := logrus.Fields{"user_id": userID, "book_id": bookID}

	books, err := e.books.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("request loan: %w", err)
	}
	bi := indexOfBook(books, bookID)
	if bi < 0 {
		return e.refused("request", e.refuse(CodeBookNotFound), fields), nil
	}
	if !IsAvailable(books[bi]) {
		return e.refused("request", e.refuse(CodeBookNotAvailable), fields), nil
	}

	loans, err := e.loans.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("request loan: %w", err)
	}
	if !e.disableLimits {
		if ActiveLoanCount(userID, loans) >= e.maxActive {
			return e.refused("request", e.refuse(CodeUserMaxCapacity), fields), nil
		}
		if HasActiveLoanForBook(userID, bookID, loans) {
			return e.refused("request", e.refuse(CodeDuplicateActiveLoan), fields), nil
		}
	}

	now := e.now()
	loan := entity.Loan{
		ID:        e.newID(),
		UserID:    userID,
		BookID:    bookID,
		StartDate: now,
		DueDate:   helpers.AddDays(now, e.loanDays),
		Status:    entity.LoanActive,
	}
	if e.approval {
		loan.Status = entity.LoanPending
	}

	loans = append(loans, loan)
	if err := e.loans.SaveAll(ctx, loans); err != nil {
		return LoanResult{}, fmt.Errorf("request loan: %w", err)
	}

	if loan.Status == entity.LoanPending {
		e.logger.WithFields(fields).WithField("loan_id", loan.ID).Info("loan requested, awaiting approval")
		return succeeded(loan, "Loan requested. An administrator will review it shortly."), nil
	}

	MarkLoaned(&books[bi])
	if err := e.books.SaveAll(ctx, books); err != nil {
		return LoanResult{}, fmt.Errorf("request loan: %w", err)
	}
	e.logger.WithFields(fields).WithField("loan_id", loan.ID).Info("loan created")
	return succeeded(loan, fmt.Sprintf("Loan created. Return by %s.", helpers.FormatDueDate(loan.DueDate))), nil
}

// ReturnLoan closes a book-holding loan and puts the book back on the shelf.
// A book that no longer exists is skipped.
func (e *LoanEngine) ReturnLoan(ctx context.Context, loanID string) (LoanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := logrus.Fields{"loan_id": loanID}
	loans, err := e.loans.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("return loan: %w", err)
	}
	li := indexOfLoan(loans, loanID)
	if li < 0 {
		return e.refused("return", e.refuse(CodeLoanNotFound), fields), nil
	}
	switch loans[li].Status {
	case entity.LoanReturned:
		return e.refused("return", e.refuse(CodeLoanAlreadyReturned), fields), nil
	case entity.LoanPending, entity.LoanRejected:
		return e.refused("return", e.refuse(CodeLoanNotApproved), fields), nil
	}

	now := e.now()
	loans[li].Status = entity.LoanReturned
	loans[li].ReturnDate = &now
	if err := e.loans.SaveAll(ctx, loans); err != nil {
		return LoanResult{}, fmt.Errorf("return loan: %w", err)
	}

	if err := e.setBookStatus(ctx, loans[li].BookID, MarkAvailable); err != nil {
		return LoanResult{}, fmt.Errorf("return loan: %w", err)
	}
	e.logger.WithFields(fields).WithField("book_id", loans[li].BookID).Info("loan returned")
	return succeeded(loans[li], "Book returned. Thank you!"), nil
}

// Approve moves a pending loan to approved and takes its book off the shelf.
// It refuses when another loan already holds the book.
func (e *LoanEngine) Approve(ctx context.Context, loanID string) (LoanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := logrus.Fields{"loan_id": loanID}
	loans, err := e.loans.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("approve loan: %w", err)
	}
	li := indexOfLoan(loans, loanID)
	if li < 0 {
		return e.refused("approve", e.refuse(CodeLoanNotFound), fields), nil
	}
	if loans[li].Status != entity.LoanPending {
		return e.refused("approve", e.refuse(CodeLoanNotPending), fields), nil
	}

	books, err := e.books.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("approve loan: %w", err)
	}
	bi := indexOfBook(books, loans[li].BookID)
	if bi >= 0 && !IsAvailable(books[bi]) {
		return e.refused("approve", e.refuse(CodeBookNotAvailable), fields), nil
	}

	loans[li].Status = entity.LoanApproved
	if err := e.loans.SaveAll(ctx, loans); err != nil {
		return LoanResult{}, fmt.Errorf("approve loan: %w", err)
	}
	if bi >= 0 {
		MarkLoaned(&books[bi])
		if err := e.books.SaveAll(ctx, books); err != nil {
			return LoanResult{}, fmt.Errorf("approve loan: %w", err)
		}
	}
	e.logger.WithFields(fields).WithField("book_id", loans[li].BookID).Info("loan approved")
	return succeeded(loans[li], fmt.Sprintf("Loan approved. Return by %s.", helpers.FormatDueDate(loans[li].DueDate))), nil
}

// Reject closes a pending loan without touching its book.
func (e *LoanEngine) Reject(ctx context.Context, loanID string) (LoanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fields := logrus.Fields{"loan_id": loanID}
	loans, err := e.loans.All(ctx)
	if err != nil {
		return LoanResult{}, fmt.Errorf("reject loan: %w", err)
	}
	li := indexOfLoan(loans, loanID)
	if li < 0 {
		return e.refused("reject", e.refuse(CodeLoanNotFound), fields), nil
	}
	if loans[li].Status != entity.LoanPending {
		return e.refused("reject", e.refuse(CodeLoanNotPending), fields), nil
	}

	loans[li].Status = entity.LoanRejected
	if err := e.loans.SaveAll(ctx, loans); err != nil {
		return LoanResult{}, fmt.Errorf("reject loan: %w", err)
	}
	e.logger.WithFields(fields).Info("loan rejected")
	return succeeded(loans[li], "Loan request rejected."), nil
}

// Loans returns every loan in stored order.
func (e *LoanEngine) Loans(ctx context.Context) ([]entity.Loan, error) {
	return e.loans.All(ctx)
}

// LoanByID returns repo.ErrNotFound when no loan has id.
func (e *LoanEngine) LoanByID(ctx context.Context, id string) (entity.Loan, error) {
	loans, err := e.loans.All(ctx)
	if err != nil {
		return entity.Loan{}, err
	}
	if i := indexOfLoan(loans, id); i >= 0 {
		return loans[i], nil
	}
	return entity.Loan{}, repo.ErrNotFound
}

func (e *LoanEngine) LoansByUser(ctx context.Context, userID string) ([]entity.Loan, error) {
	return e.filter(ctx, func(l entity.Loan) bool { return l.UserID == userID })
}

func (e *LoanEngine) LoansByBook(ctx context.Context, bookID string) ([]entity.Loan, error) {
	return e.filter(ctx, func(l entity.Loan) bool { return l.BookID == bookID })
}

func (e *LoanEngine) filter(ctx context.Context, keep func(entity.Loan) bool) ([]entity.Loan, error) {
	loans, err := e.loans.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Loan, 0)
	for _, l := range loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (e *LoanEngine) setBookStatus(ctx context.Context, bookID string, mark func(*entity.Book)) error {
	books, err := e.books.All(ctx)
	if err != nil {
		return err
	}
	bi := indexOfBook(books, bookID)
	if bi < 0 {
		return nil
	}
	mark(&books[bi])
	return e.books.SaveAll(ctx, books)
}

func (e *LoanEngine) refused(op string, res LoanResult, fields logrus.Fields) LoanResult {
	e.logger.WithFields(fields).WithField("code", res.Code).Debugf("%s refused", op)
	return res
}
