package member

import "context"

// Repository persists members. Implementations return ErrMemberNotFound for
// missing records and ErrConflict when a unique email or phone index is hit.
type Repository interface {
	Create(ctx context.Context, member *Member) error
	Save(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, category Category, id string) (*Member, error)
	GetByEmail(ctx context.Context, category Category, email string) (*Member, error)
	ExistsByEmailOrPhone(ctx context.Context, category Category, email, phone string) (bool, error)
	List(ctx context.Context, category Category, filter ListFilter) ([]Member, error)
}
