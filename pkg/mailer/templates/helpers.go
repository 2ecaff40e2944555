package templates

import (
	"time"

	"github.com/oksasatya/go-ddd-library/config"
)

// Option pattern
type Option func(*EmailData)

func WithBook(title, author string) Option {
	return func(d *EmailData) {
		d.BookTitle = title
		d.BookAuthor = author
	}
}

func WithDueDate(due string) Option { return func(d *EmailData) { d.DueDate = due } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

// NewLoanEmailData fills the common fields from cfg, then applies opts.
func NewLoanEmailData(cfg *config.Config, typ, name, email, loanID string, opts ...Option) map[string]any {
	d := EmailData{
		Name:       name,
		Email:      email,
		Type:       typ,
		AppName:    cfg.AppName,
		AppURL:     cfg.AppURL,
		SupportURL: cfg.SupportURL,
		LoanID:     loanID,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return ToMap(d)
}
