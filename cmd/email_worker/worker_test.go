package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/config"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
	"github.com/oksasatya/go-ddd-library/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-library/pkg/mailer/templates"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func givenWorker(sender Sender) *worker {
	return &worker{Sender: sender, Timeout: time.Second, Logger: helpers.NewDiscardLogger()}
}

func encode(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func Test_Handle_RendersLoanTemplate(t *testing.T) {
	// arrange
	sender := &fakeSender{}
	w := givenWorker(sender)
	job := mailer.EmailJob{
		To:       "maty@libra.dev",
		Subject:  helpers.SubjectForTemplate(mailtpl.LoanCreated),
		Template: mailtpl.LoanCreated,
		Data: mailtpl.NewLoanEmailData(&config.Config{AppName: "Libra"}, mailtpl.LoanCreated, "Maty", "maty@libra.dev", "l1",
			mailtpl.WithBook("Clean Code", "Robert C. Martin"),
			mailtpl.WithDueDate("15 March 2025")),
	}

	// act
	got := w.Handle(context.Background(), encode(t, job))

	// assert
	assert.Equal(t, outcomeAck, got)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "maty@libra.dev", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "Clean Code")
	assert.Contains(t, sender.sent[0].Text, "15 March 2025")
	assert.NotEmpty(t, sender.sent[0].HTML)
	assert.Equal(t, []string{"library", mailtpl.LoanCreated}, sender.sent[0].Tags)
}

func Test_Handle_PlainJob(t *testing.T) {
	sender := &fakeSender{}
	w := givenWorker(sender)

	got := w.Handle(context.Background(), encode(t, mailer.EmailJob{To: "a@libra.dev", Subject: "Hi", Text: "plain"}))

	assert.Equal(t, outcomeAck, got)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, mailer.Message{To: "a@libra.dev", Subject: "Hi", Text: "plain", Tags: []string{"library"}}, sender.sent[0])
}

func Test_Handle_Outcomes(t *testing.T) {
	testCases := []struct {
		name    string
		body    []byte
		sendErr error
		want    outcome
	}{
		{name: "malformed json is dropped", body: []byte("{"), want: outcomeDrop},
		{name: "missing recipient is dropped", body: []byte(`{"subject":"x"}`), want: outcomeDrop},
		{name: "unknown template is dropped", body: []byte(`{"to":"a@libra.dev","template":"welcome"}`), want: outcomeDrop},
		{name: "send failure is retried", body: []byte(`{"to":"a@libra.dev","subject":"x","text":"y"}`), sendErr: errors.New("mailgun down"), want: outcomeRetry},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{err: tc.sendErr}

			got := givenWorker(sender).Handle(context.Background(), tc.body)

			assert.Equal(t, tc.want, got)
			assert.Empty(t, sender.sent)
		})
	}
}
