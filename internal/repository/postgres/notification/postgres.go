package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	notificationdomain "welfare-app-go/internal/domain/notification"
)

const defaultListLimit = 100

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *notificationdomain.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *PostgresRepository) Save(ctx context.Context, job *notificationdomain.Job) error {
	result := r.db.WithContext(ctx).
		Model(&notificationdomain.Job{}).
		Where("id = ?", job.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(job)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notificationdomain.ErrJobNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*notificationdomain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notificationdomain.ErrJobNotFound
	}
	var job notificationdomain.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notificationdomain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter notificationdomain.ListFilter) ([]notificationdomain.Job, error) {
	query := r.db.WithContext(ctx).Model(&notificationdomain.Job{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var jobs []notificationdomain.Job
	if err := query.Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimDue selects due jobs with FOR UPDATE SKIP LOCKED so concurrent workers
// never claim the same row, then marks them processing in the same transaction.
func (r *PostgresRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]notificationdomain.Job, error) {
	var jobs []notificationdomain.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("status = ?", notificationdomain.StatusPending).
			Where("(next_retry_at IS NULL OR next_retry_at <= ?)", now).
			Order("created_at ASC").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, len(jobs))
		for i := range jobs {
			ids[i] = jobs[i].ID
			jobs[i].Status = notificationdomain.StatusProcessing
			jobs[i].UpdatedAt = now
		}
		return tx.Model(&notificationdomain.Job{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     notificationdomain.StatusProcessing,
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *PostgresRepository) ResetStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationdomain.Job{}).
		Where("status = ?", notificationdomain.StatusProcessing).
		Where("updated_at < ?", cutoff).
		Update("status", notificationdomain.StatusPending)
	return result.RowsAffected, result.Error
}
