package notification

import "errors"

var (
	ErrJobNotFound     = errors.New("notification job not found")
	ErrJobNotRetryable = errors.New("only failed notification jobs can be retried")
)
