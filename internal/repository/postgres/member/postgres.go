package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"welfare-app-go/internal/db"
	memberdomain "welfare-app-go/internal/domain/member"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, member *memberdomain.Member) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, member *memberdomain.Member) error {
	result := r.db.WithContext(ctx).
		Model(&memberdomain.Member{}).
		Where("id = ? AND category = ?", member.ID, member.Category).
		Select("*").
		Omit("id", "category", "created_at").
		Updates(member)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return memberdomain.ErrMemberNotFound
	}
	return nil
}

// GetByID treats an id that is not a UUID as absent; the column type would reject it.
func (r *PostgresRepository) GetByID(ctx context.Context, category memberdomain.Category, id string) (*memberdomain.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, memberdomain.ErrMemberNotFound
	}
	var member memberdomain.Member
	if err := r.db.WithContext(ctx).
		Where("category = ? AND id = ?", category, id).
		First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, category memberdomain.Category, email string) (*memberdomain.Member, error) {
	var member memberdomain.Member
	if err := r.db.WithContext(ctx).
		Where("category = ? AND email = ?", category, email).
		First(&member).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r *PostgresRepository) ExistsByEmailOrPhone(ctx context.Context, category memberdomain.Category, email, phone string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&memberdomain.Member{}).
		Where("category = ?", category).
		Where("email = ? OR phone = ?", email, phone).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, category memberdomain.Category, filter memberdomain.ListFilter) ([]memberdomain.Member, error) {
	query := r.db.WithContext(ctx).Where("category = ?", category)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var members []memberdomain.Member
	if err := query.Order("created_at DESC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return memberdomain.ErrMemberNotFound
	case db.IsDuplicateKey(err):
		return memberdomain.ErrConflict
	default:
		return err
	}
}
