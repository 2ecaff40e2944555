package application

import "github.com/oksasatya/go-ddd-library/internal/domain/entity"

// ActiveLoanCount counts the outstanding loans of userID. It scans the whole
// slice; there is no per-user index.
func ActiveLoanCount(userID string, loans []entity.Loan) int {
	n := 0
	for _, l := range loans {
		if l.UserID == userID && l.Outstanding() {
			n++
		}
	}
	return n
}

// HasActiveLoanForBook reports whether userID already has an outstanding loan
// for bookID.
func HasActiveLoanForBook(userID, bookID string, loans []entity.Loan) bool {
	for _, l := range loans {
		if l.UserID == userID && l.BookID == bookID && l.Outstanding() {
			return true
		}
	}
	return false
}

func indexOfLoan(loans []entity.Loan, id string) int {
	for i := range loans {
		if loans[i].ID == id {
			return i
		}
	}
	return -1
}
