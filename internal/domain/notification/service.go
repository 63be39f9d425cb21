package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/pkg/logger"
)

const defaultMaxRetries = 5

// Service stores rendered notifications in the outbox. Delivery happens in Worker.
type Service struct {
	repo       Repository
	log        logger.Logger
	maxRetries int
	now        func() time.Time
	kick       func()
}

type Option func(*Service)

func WithMaxRetries(maxRetries int) Option {
	return func(s *Service) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
	}
}

// WithKick registers a callback run after each enqueue, usually Worker.Kick.
func WithKick(kick func()) Option {
	return func(s *Service) {
		s.kick = kick
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		log:        log,
		maxRetries: defaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) MemberRegistered(ctx context.Context, m member.Member) error {
	envelopes, err := WelcomeEnvelopes(m)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, KindWelcome, m, envelopes)
}

func (s *Service) MemberUpdated(ctx context.Context, m member.Member, changes []member.Change) error {
	if len(changes) == 0 {
		return nil
	}
	envelopes, err := UpdateEnvelopes(m, changes)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, KindUpdate, m, envelopes)
}

func (s *Service) enqueue(ctx context.Context, kind Kind, m member.Member, envelopes []Envelope) error {
	if len(envelopes) == 0 {
		return nil
	}

	now := s.now()
	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		MemberID:   m.ID,
		Category:   string(m.Category),
		Envelopes:  envelopes,
		Delivered:  Roles{},
		Status:     StatusPending,
		MaxRetries: s.maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, &job); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}

	s.log.Debug("notification: job enqueued", "job_id", job.ID, "kind", kind, "recipients", len(envelopes))
	if s.kick != nil {
		s.kick()
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Job, error) {
	jobs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		return []Job{}, nil
	}
	return jobs, nil
}

// Retry moves a dead letter job back to pending and clears its retry count.
func (s *Service) Retry(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusFailed {
		return nil, ErrJobNotRetryable
	}

	job.Status = StatusPending
	job.RetryCount = 0
	job.NextRetryAt = nil
	job.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	if s.kick != nil {
		s.kick()
	}
	return job, nil
}
