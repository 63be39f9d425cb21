package notification

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"welfare-app-go/pkg/logger"
)

const maxRetryDelay = 24 * time.Hour

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	BaseDelay    time.Duration
	StuckAfter   time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Minute
	}
	if c.StuckAfter <= 0 {
		c.StuckAfter = 5 * time.Minute
	}
	return c
}

// Worker drains the outbox table.
type Worker struct {
	repo     Repository
	fanout   *Fanout
	cfg      WorkerConfig
	log      logger.Logger
	recorder Recorder
	now      func() time.Time
	kick     chan struct{}
}

func NewWorker(repo Repository, fanout *Fanout, cfg WorkerConfig, log logger.Logger, recorder Recorder) *Worker {
	return &Worker{
		repo:     repo,
		fanout:   fanout,
		cfg:      cfg.withDefaults(),
		log:      log,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
		kick:     make(chan struct{}, 1),
	}
}

// Kick wakes the worker without waiting for the next tick.
func (w *Worker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Start blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("notification worker started", "poll_interval", w.cfg.PollInterval, "batch_size", w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("notification worker stopped")
			return
		case <-ticker.C:
		case <-w.kick:
		}
		w.ProcessOnce(ctx)
	}
}

// ProcessOnce claims one batch of due jobs and attempts delivery. It returns the number of jobs handled.
func (w *Worker) ProcessOnce(ctx context.Context) int {
	now := w.now()

	reset, err := w.repo.ResetStuck(ctx, now.Add(-w.cfg.StuckAfter))
	if err != nil {
		w.log.Warn("notification: failed to reset stuck jobs", "err", err)
	} else if reset > 0 {
		w.log.Warn("notification: reset stuck jobs", "count", reset)
	}

	jobs, err := w.repo.ClaimDue(ctx, now, w.cfg.BatchSize)
	if err != nil {
		w.log.InternalError("notification: failed to claim jobs", err)
		return 0
	}

	for i := range jobs {
		w.processJob(ctx, &jobs[i])
	}
	return len(jobs)
}

func (w *Worker) processJob(ctx context.Context, job *Job) {
	results, deliverErr := w.fanout.Deliver(ctx, job.Pending())
	for role, ok := range results {
		if ok && !job.Delivered.Contains(role) {
			job.Delivered = append(job.Delivered, role)
		}
	}

	now := w.now()
	job.ProcessedAt = &now
	job.UpdatedAt = now

	switch {
	case deliverErr == nil:
		job.Status = StatusCompleted
		job.LastError = ""
		job.NextRetryAt = nil
		w.log.Info("notification: job completed", "job_id", job.ID, "kind", job.Kind)
	case job.RetryCount+1 > job.MaxRetries:
		job.RetryCount++
		job.Status = StatusFailed
		job.LastError = deliverErr.Error()
		job.NextRetryAt = nil
		w.log.Error("notification: job failed after max retries",
			"job_id", job.ID,
			"retry_count", job.RetryCount,
			"max_retries", job.MaxRetries,
			"err", deliverErr,
		)
	default:
		next := now.Add(retryDelay(w.cfg.BaseDelay, job.RetryCount))
		job.RetryCount++
		job.Status = StatusPending
		job.LastError = deliverErr.Error()
		job.NextRetryAt = &next
		w.log.Warn("notification: job failed, will retry",
			"job_id", job.ID,
			"retry_count", job.RetryCount,
			"next_retry_at", next,
			"err", deliverErr,
		)
	}

	if w.recorder != nil {
		w.recorder.RecordJob(string(job.Status))
	}

	if err := w.repo.Save(ctx, job); err != nil {
		w.log.InternalError("notification: failed to update job", err, "job_id", job.ID)
	}
}

// retryDelay is the wait before retry number attempt (zero based):
// base, 2*base, 4*base and so on, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	backoff := retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(base))
	var delay time.Duration
	for i := 0; i <= attempt; i++ {
		delay, _ = backoff.Next()
	}
	return delay
}
