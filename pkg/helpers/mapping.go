package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/go-ddd-library/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-library/pkg/mailer/templates"
)

func SubjectForTemplate(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.LoanCreated:
		return "Your loan is confirmed"
	case mailtpl.LoanRequested:
		return "We received your loan request"
	case mailtpl.LoanApproved:
		return "Your loan request was approved"
	case mailtpl.LoanRejected:
		return "Your loan request was rejected"
	case mailtpl.LoanReturned:
		return "Thanks for returning your book"
	default:
		return "Library notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
}
