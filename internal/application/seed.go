package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// SeedReport lists which collections SeedIfEmpty wrote.
type SeedReport struct {
	Books bool
	Users bool
	Loans bool
}

func SeedBooks() []entity.Book {
	return []entity.Book{
		{ID: "b1", Title: "Clean Code", Author: "Robert C. Martin", Category: "Programming", Status: entity.BookAvailable,
			Description: "Principles and practices for writing clear, maintainable code."},
		{ID: "b2", Title: "Design Patterns", Author: "GoF", Category: "Programming", Status: entity.BookLoaned,
			Description: "The classic catalog of object-oriented design patterns."},
		{ID: "b3", Title: "Fundamentals of Database Systems", Author: "Elmasri & Navathe", Category: "Databases", Status: entity.BookAvailable,
			Description: "Modeling, design and implementation of relational databases."},
		{ID: "b4", Title: "You Don't Know JS", Author: "Kyle Simpson", Category: "Programming", Status: entity.BookAvailable,
			Description: "Deep JavaScript concepts explained clearly."},
		{ID: "b5", Title: "Refactoring", Author: "Martin Fowler", Category: "Programming", Status: entity.BookAvailable,
			Description: "Improving the design of existing code without changing its behavior."},
		{ID: "b6", Title: "Modern Operating Systems", Author: "Tanenbaum", Category: "Systems", Status: entity.BookAvailable,
			Description: "Concepts and design of operating systems."},
		{ID: "b7", Title: "Computer Networks", Author: "Kurose & Ross", Category: "Networking", Status: entity.BookAvailable,
			Description: "Fundamentals of computer networking."},
		{ID: "b8", Title: "Pattern-Oriented Software Architecture", Author: "Buschmann", Category: "Architecture", Status: entity.BookAvailable,
			Description: "Patterns for software architecture."},
	}
}

func SeedUsers() []entity.User {
	userHash := helpers.SHA256Hex("123456")
	return []entity.User{
		{ID: "u1", Name: "Administrator", Email: "admin@libra.dev", Role: entity.RoleAdmin, PasswordHash: helpers.SHA256Hex("matyxd2006")},
		{ID: "u2", Name: "Maty", Email: "maty@libra.dev", Role: entity.RoleUser, PasswordHash: userHash},
		{ID: "u3", Name: "Cami", Email: "cami@libra.dev", Role: entity.RoleUser, PasswordHash: userHash},
	}
}

// seedLoans holds the loan behind b2's loaned status.
func seedLoans(now time.Time) []entity.Loan {
	return []entity.Loan{{
		ID:        "l1",
		UserID:    "u2",
		BookID:    "b2",
		StartDate: now,
		DueDate:   helpers.AddDays(now, LoanDays),
		Status:    entity.LoanActive,
	}}
}

// SeedIfEmpty writes the demo catalog, accounts and loans into every
// collection that holds no records. Non-empty collections are never touched,
// so running it twice is harmless. The seeded loan is only written together
// with the seeded books; otherwise b2 is seeded as available.
func SeedIfEmpty(ctx context.Context, books repo.BookRepository, users repo.UserRepository, loans repo.LoanRepository, now time.Time, logger *logrus.Logger) (SeedReport, error) {
	var rep SeedReport
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}

	existingBooks, err := books.All(ctx)
	if err != nil {
		return rep, fmt.Errorf("seed books: %w", err)
	}
	existingLoans, err := loans.All(ctx)
	if err != nil {
		return rep, fmt.Errorf("seed loans: %w", err)
	}
	existingUsers, err := users.All(ctx)
	if err != nil {
		return rep, fmt.Errorf("seed users: %w", err)
	}

	withLoan := len(existingBooks) == 0 && len(existingLoans) == 0
	if len(existingBooks) == 0 {
		seed := SeedBooks()
		if !withLoan {
			for i := range seed {
				MarkAvailable(&seed[i])
			}
		}
		if err := books.SaveAll(ctx, seed); err != nil {
			return rep, fmt.Errorf("seed books: %w", err)
		}
		rep.Books = true
	}
	if len(existingUsers) == 0 {
		if err := users.SaveAll(ctx, SeedUsers()); err != nil {
			return rep, fmt.Errorf("seed users: %w", err)
		}
		rep.Users = true
	}
	if len(existingLoans) == 0 {
		seed := []entity.Loan{}
		if withLoan {
			seed = seedLoans(now)
		}
		if err := loans.SaveAll(ctx, seed); err != nil {
			return rep, fmt.Errorf("seed loans: %w", err)
		}
		rep.Loans = true
	}

	logger.WithFields(logrus.Fields{"books": rep.Books, "users": rep.Users, "loans": rep.Loans}).Info("seed finished")
	return rep, nil
}
