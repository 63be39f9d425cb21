package mailer

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"welfare-app-go/pkg/logger"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 500 * time.Millisecond
)

// Retrying resends a message on transient network errors with exponential backoff.
type Retrying struct {
	next      Sender
	log       logger.Logger
	attempts  int
	baseDelay time.Duration
	backoff   func() retry.Backoff
}

type RetryOption func(*Retrying)

func WithAttempts(attempts int) RetryOption {
	return func(r *Retrying) {
		if attempts > 0 {
			r.attempts = attempts
		}
	}
}

func WithBaseDelay(delay time.Duration) RetryOption {
	return func(r *Retrying) {
		if delay > 0 {
			r.baseDelay = delay
		}
	}
}

func NewRetrying(next Sender, log logger.Logger, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:      next,
		log:       log,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.backoff = r.newBackoff
	return r
}

// newBackoff yields baseDelay, 2*baseDelay, ... for attempts-1 retries.
func (r *Retrying) newBackoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(r.attempts-1), retry.NewExponential(r.baseDelay))
}

func (r *Retrying) Send(ctx context.Context, msg Message) error {
	attempt := 0
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		err := r.next.Send(ctx, msg)
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt < r.attempts {
			r.log.Warn("mailer: transient send failure, retrying",
				"to", msg.To,
				"attempt", attempt,
				"err", err,
			)
		}
		return retry.RetryableError(err)
	})
}

// IsTransient reports whether err is a network failure worth retrying:
// connection reset or refused, broken pipe, timeouts and DNS lookup failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.EPIPE, syscall.ECONNREFUSED} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
