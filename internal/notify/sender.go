// Package notify is the best-effort notification side-channel. Nothing in
// here ever returns an error to the transactional core: failures are logged
// and dropped.
package notify

import "context"

// Message is a rendered email notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// SMSSender delivers a plain-text SMS to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}
