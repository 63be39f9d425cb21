package mailer

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("mailer not configured")

// Message is one HTML email. Bcc recipients are hidden from To.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Bcc     []string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
