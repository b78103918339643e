package mailer

import (
	"context"
	"log"
)

// Mailer dispatches plain-text email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// NoopMailer logs would-be sends. Used when SMTP is not configured.
type NoopMailer struct{}

// Send logs the message instead of delivering it.
func (NoopMailer) Send(_ context.Context, to string, subject string, _ string) error {
	log.Printf("mailer noop send to=%s subject=%q", to, subject)
	return nil
}
