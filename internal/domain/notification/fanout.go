package notification

import (
	"context"
	"errors"
	"fmt"

	"welfare-app-go/internal/mailer"
	"welfare-app-go/pkg/logger"
)

// Recorder observes delivery outcomes. Implemented by the metrics registry.
type Recorder interface {
	RecordDelivery(role string, ok bool)
	RecordJob(status string)
}

// Fanout sends each envelope independently through the injected sender.
type Fanout struct {
	sender   mailer.Sender
	from     string
	log      logger.Logger
	recorder Recorder
}

func NewFanout(sender mailer.Sender, from string, log logger.Logger, recorder Recorder) *Fanout {
	return &Fanout{sender: sender, from: from, log: log, recorder: recorder}
}

// Deliver returns per recipient success. A failure for one envelope does not
// stop the others; the returned error joins every failure.
func (f *Fanout) Deliver(ctx context.Context, envelopes []Envelope) (map[Role]bool, error) {
	results := make(map[Role]bool, len(envelopes))
	var errs []error

	for _, envelope := range envelopes {
		err := f.sender.Send(ctx, mailer.Message{
			From:    f.from,
			To:      envelope.To,
			Subject: envelope.Subject,
			HTML:    envelope.HTML,
			Bcc:     envelope.Bcc,
		})
		results[envelope.Role] = err == nil
		if f.recorder != nil {
			f.recorder.RecordDelivery(string(envelope.Role), err == nil)
		}
		if err != nil {
			f.log.Warn("notification: delivery failed", "role", envelope.Role, "to", envelope.To, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", envelope.Role, err))
			continue
		}
		f.log.Debug("notification: delivered", "role", envelope.Role, "to", envelope.To)
	}

	return results, errors.Join(errs...)
}
