package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	notificationdomain "welfare-app-go/internal/domain/notification"
)

const defaultJobListLimit = 100

// NotificationRepository is a process local outbox used by the memory driver.
type NotificationRepository struct {
	mu   sync.Mutex
	jobs map[string]notificationdomain.Job
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		jobs: make(map[string]notificationdomain.Job),
	}
}

func (r *NotificationRepository) Create(_ context.Context, job *notificationdomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r *NotificationRepository) Save(_ context.Context, job *notificationdomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return notificationdomain.ErrJobNotFound
	}
	r.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*notificationdomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, notificationdomain.ErrJobNotFound
	}
	out := cloneJob(job)
	return &out, nil
}

func (r *NotificationRepository) List(_ context.Context, filter notificationdomain.ListFilter) ([]notificationdomain.Job, error) {
	r.mu.Lock()
	out := make([]notificationdomain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, cloneJob(job))
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultJobListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) ClaimDue(_ context.Context, now time.Time, limit int) ([]notificationdomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]notificationdomain.Job, 0)
	for _, job := range r.jobs {
		if job.Status != notificationdomain.StatusPending {
			continue
		}
		if job.NextRetryAt != nil && job.NextRetryAt.After(now) {
			continue
		}
		due = append(due, job)
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	for i := range due {
		due[i].Status = notificationdomain.StatusProcessing
		due[i].UpdatedAt = now
		r.jobs[due[i].ID] = cloneJob(due[i])
		due[i] = cloneJob(due[i])
	}
	return due, nil
}

func (r *NotificationRepository) ResetStuck(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, job := range r.jobs {
		if job.Status == notificationdomain.StatusProcessing && job.UpdatedAt.Before(cutoff) {
			job.Status = notificationdomain.StatusPending
			r.jobs[id] = job
			count++
		}
	}
	return count, nil
}

func cloneJob(job notificationdomain.Job) notificationdomain.Job {
	job.Envelopes = append(notificationdomain.Envelopes(nil), job.Envelopes...)
	job.Delivered = append(notificationdomain.Roles{}, job.Delivered...)
	return job
}
