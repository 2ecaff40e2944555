package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/pkg/helpers"
	"github.com/oksasatya/go-ddd-library/pkg/mailer"
	mailtpl "github.com/oksasatya/go-ddd-library/pkg/mailer/templates"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDrop
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type worker struct {
	Sender  Sender
	Timeout time.Duration
	Logger  *logrus.Logger
}

// Handle renders and sends one queued job. Bad payloads and unknown
// templates are dropped; send failures are retried.
func (w *worker) Handle(ctx context.Context, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Warn("bad message")
		return outcomeDrop
	}
	if job.To == "" {
		w.Logger.Warn("message without recipient")
		return outcomeDrop
	}
	helpers.EnsureRecipientAndEmail(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !mailtpl.Known(job.Template) {
			w.Logger.WithField("template", job.Template).Warn("unknown template")
			return outcomeDrop
		}
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.Logger.WithError(err).WithField("template", job.Template).Error("render failed")
			return outcomeDrop
		}
		text, html = t, h
		if s != "" {
			subject = s
		}
		if subject == "" {
			subject = helpers.SubjectForTemplate(job.Template)
		}
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	msg := mailer.Message{To: job.To, Subject: subject, Text: text, HTML: html, Tags: job.Tags()}
	if err := w.Sender.Send(c, msg); err != nil {
		w.Logger.WithError(err).WithField("to", job.To).Warn("send failed")
		return outcomeRetry
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return outcomeAck
}
