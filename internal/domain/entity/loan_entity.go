package entity

import "time"

type LoanStatus string

const (
	// two-state lifecycle
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"

	// approval workflow
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
)

// Loan links a user to a book for a fixed period.
// ReturnDate stays nil until the book is handed back.
type Loan struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	BookID     string     `json:"bookId"`
	StartDate  time.Time  `json:"startDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	Status     LoanStatus `json:"status"`
}

// HoldsBook reports whether the loan keeps its book out of circulation.
func (l Loan) HoldsBook() bool {
	return l.Status == LoanActive || l.Status == LoanApproved
}

// Outstanding reports whether the loan counts against the user's capacity:
// anything not yet returned or rejected.
func (l Loan) Outstanding() bool {
	return l.Status == LoanActive || l.Status == LoanApproved || l.Status == LoanPending
}

// Overdue reports whether a book-holding loan is past its due date at now.
func (l Loan) Overdue(now time.Time) bool {
	return l.HoldsBook() && now.After(l.DueDate)
}
