package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/config"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
	"github.com/oksasatya/go-ddd-library/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-library/pkg/mailer/templates"
)

// JobPublisher puts a JSON message on the email queue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// LoanNotifier turns successful loan transitions into email jobs.
// Delivery failures are logged and never reach the caller.
type LoanNotifier struct {
	Publisher JobPublisher
	Users     repo.UserRepository
	Books     repo.BookRepository
	Cfg       *config.Config
	Logger    *logrus.Logger
}

func NewLoanNotifier(p JobPublisher, users repo.UserRepository, books repo.BookRepository, cfg *config.Config, logger *logrus.Logger) *LoanNotifier {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &LoanNotifier{Publisher: p, Users: users, Books: books, Cfg: cfg, Logger: logger}
}

// TemplateFor picks the email template for a loan that just changed state.
func TemplateFor(l entity.Loan) string {
	switch l.Status {
	case entity.LoanActive:
		return mailtpl.LoanCreated
	case entity.LoanPending:
		return mailtpl.LoanRequested
	case entity.LoanApproved:
		return mailtpl.LoanApproved
	case entity.LoanRejected:
		return mailtpl.LoanRejected
	case entity.LoanReturned:
		return mailtpl.LoanReturned
	}
	return ""
}

// Notify enqueues the email for res when it is a success.
func (n *LoanNotifier) Notify(ctx context.Context, res LoanResult) {
	if n == nil || n.Publisher == nil || !res.OK || res.Loan == nil {
		return
	}
	loan := *res.Loan
	fields := logrus.Fields{"loan_id": loan.ID, "user_id": loan.UserID}
	tpl := TemplateFor(loan)
	if tpl == "" {
		return
	}

	users, err := n.Users.All(ctx)
	if err != nil {
		n.Logger.WithError(err).WithFields(fields).Warn("notify: load users failed")
		return
	}
	i := indexOfUser(users, loan.UserID)
	if i < 0 {
		n.Logger.WithFields(fields).Debug("notify: user gone, skipping")
		return
	}
	u := users[i]

	opts := []mailtpl.Option{mailtpl.WithDueDate(helpers.FormatDueDate(loan.DueDate))}
	if loan.ReturnDate != nil {
		opts = append(opts, mailtpl.WithTime(*loan.ReturnDate))
	} else {
		opts = append(opts, mailtpl.WithTime(time.Now()))
	}
	if books, err := n.Books.All(ctx); err == nil {
		if bi := indexOfBook(books, loan.BookID); bi >= 0 {
			opts = append(opts, mailtpl.WithBook(books[bi].Title, books[bi].Author))
		}
	}

	job := mailer.EmailJob{
		To:       u.Email,
		Subject:  helpers.SubjectForTemplate(tpl),
		Template: tpl,
		Data:     mailtpl.NewLoanEmailData(n.Cfg, tpl, u.Name, u.Email, loan.ID, opts...),
	}
	if err := n.Publisher.PublishJSON(ctx, job); err != nil {
		n.Logger.WithError(err).WithFields(fields).Warn("notify: publish failed")
		return
	}
	n.Logger.WithFields(fields).WithField("template", tpl).Debug("email job queued")
}
