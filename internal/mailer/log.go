package mailer

import (
	"context"

	"welfare-app-go/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("mailer: email not sent, no transport configured",
		"to", msg.To,
		"bcc", len(msg.Bcc),
		"subject", msg.Subject,
	)
	return nil
}
