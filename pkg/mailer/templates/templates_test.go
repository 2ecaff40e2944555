package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/config"
	"github.com/oksasatya/go-ddd-library/pkg/mailer/templates"
)

func Test_Render_EveryLoanTemplate(t *testing.T) {
	cfg := &config.Config{AppName: "Libra", AppURL: "http://libra.test"}
	names := []string{
		templates.LoanCreated,
		templates.LoanRequested,
		templates.LoanApproved,
		templates.LoanRejected,
		templates.LoanReturned,
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			// arrange
			data := templates.NewLoanEmailData(cfg, name, "Maty", "maty@libra.dev", "l1",
				templates.WithBook("Clean Code", "Robert C. Martin"),
				templates.WithDueDate("15 January 2025"),
			)

			// act
			subject, text, html, err := templates.Render(name, data)

			// assert
			require.NoError(t, err)
			assert.True(t, templates.Known(name))
			assert.Contains(t, subject, "Clean Code")
			assert.Contains(t, text, "Maty")
			assert.Contains(t, html, "Clean Code")
		})
	}
}

func Test_Render_DueDateInCreatedMail(t *testing.T) {
	// arrange
	data := templates.NewLoanEmailData(&config.Config{}, templates.LoanCreated, "", "x@libra.dev", "l1",
		templates.WithDueDate("15 January 2025"))

	// act
	_, text, _, err := templates.Render(templates.LoanCreated, data)

	// assert
	require.NoError(t, err)
	assert.Contains(t, text, "Hi reader")
	assert.Contains(t, text, "15 January 2025")
}

func Test_Render_UnknownTemplate(t *testing.T) {
	_, _, _, err := templates.Render("nope", nil)

	assert.Error(t, err)
	assert.False(t, templates.Known("nope"))
}
