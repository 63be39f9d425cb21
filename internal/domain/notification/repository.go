package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, job *Job) error
	Save(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
	// ClaimDue moves up to limit due pending jobs to processing and returns them.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	// ResetStuck returns processing jobs last touched before cutoff to pending.
	ResetStuck(ctx context.Context, cutoff time.Time) (int64, error)
}
