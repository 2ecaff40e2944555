package application

import (
	"fmt"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
)

// ErrorCode identifies why a loan operation was refused.
type ErrorCode string

const (
	CodeNotLoggedIn         ErrorCode = "NOT_LOGGED_IN"
	CodeBookNotFound        ErrorCode = "BOOK_NOT_FOUND"
	CodeBookNotAvailable    ErrorCode = "BOOK_NOT_AVAILABLE"
	CodeUserMaxCapacity     ErrorCode = "USER_MAX_CAPACITY"
	CodeDuplicateActiveLoan ErrorCode = "DUPLICATE_ACTIVE_LOAN"
	CodeLoanNotFound        ErrorCode = "LOAN_NOT_FOUND"
	CodeLoanAlreadyReturned ErrorCode = "LOAN_ALREADY_RETURNED"

	// approval workflow
	CodeLoanNotPending  ErrorCode = "LOAN_NOT_PENDING"
	CodeLoanNotApproved ErrorCode = "LOAN_NOT_APPROVED"
)

var codeMessages = map[ErrorCode]string{
	CodeNotLoggedIn:         "You must be logged in to request a loan.",
	CodeBookNotFound:        "The book you are trying to borrow does not exist.",
	CodeBookNotAvailable:    "The book is not available right now.",
	CodeUserMaxCapacity:     "You have reached the maximum of %d active loans.",
	CodeDuplicateActiveLoan: "You already have this book on loan.",
	CodeLoanNotFound:        "The requested loan was not found.",
	CodeLoanAlreadyReturned: "This loan has already been returned.",
	CodeLoanNotPending:      "Only pending loans can be approved or rejected.",
	CodeLoanNotApproved:     "This loan was never approved, so it cannot be returned.",
}

// LoanResult is the outcome of a loan operation. Refusals are values with
// OK false and a Code; Loan is set only on success.
type LoanResult struct {
	OK      bool         `json:"ok"`
	Loan    *entity.Loan `json:"loan,omitempty"`
	Code    ErrorCode    `json:"code,omitempty"`
	Message string       `json:"message"`
}

func succeeded(loan entity.Loan, message string) LoanResult {
	return LoanResult{OK: true, Loan: &loan, Message: message}
}

func (e *LoanEngine) refuse(code ErrorCode) LoanResult {
	msg := codeMessages[code]
	if code == CodeUserMaxCapacity {
		msg = fmt.Sprintf(msg, e.maxActive)
	}
	return LoanResult{Code: code, Message: msg}
}
