package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // loan_created, loan_requested, loan_approved, loan_rejected, loan_returned
	Data     map[string]any `json:"data,omitempty"`
}

// Tags labels the delivery in Mailgun analytics.
func (j EmailJob) Tags() []string {
	if j.Template == "" {
		return []string{"library"}
	}
	return []string{"library", j.Template}
}
