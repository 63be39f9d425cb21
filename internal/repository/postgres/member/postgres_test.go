package member

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	memberdomain "welfare-app-go/internal/domain/member"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(&memberdomain.Member{}))
	return gormDB
}

func newMember(category memberdomain.Category, email, phone string, createdAt time.Time) *memberdomain.Member {
	age := 40
	return &memberdomain.Member{
		ID:           uuid.NewString(),
		Category:     category,
		Name:         "Member " + phone,
		Age:          &age,
		Phone:        phone,
		Email:        email,
		PasswordHash: "hash",
		Status:       memberdomain.StatusPending,
		Nominee: memberdomain.Nominee{
			Name:              "Nominee",
			BankAccountNumber: "123",
			IFSCCode:          "SBIN0001",
			BankHolderName:    "Nominee",
		},
		FamilyMember1: memberdomain.FamilyMember{Name: "Sibling", Email: "sib@example.com"},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	ctx := context.Background()

	m := newMember(memberdomain.CategoryEngineer, "a@example.com", "111", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, m))

	got, err := repo.GetByID(ctx, memberdomain.CategoryEngineer, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Equal(t, "SBIN0001", got.Nominee.IFSCCode)
	assert.Equal(t, "sib@example.com", got.FamilyMember1.Email)
	require.NotNil(t, got.Age)
	assert.Equal(t, 40, *got.Age)

	_, err = repo.GetByID(ctx, memberdomain.CategoryDoctor, m.ID)
	assert.ErrorIs(t, err, memberdomain.ErrMemberNotFound)

	byEmail, err := repo.GetByEmail(ctx, memberdomain.CategoryEngineer, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, m.ID, byEmail.ID)
}

func TestUniqueEmailAndPhonePerCategory(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newMember(memberdomain.CategoryEngineer, "a@example.com", "111", now)))

	err := repo.Create(ctx, newMember(memberdomain.CategoryEngineer, "a@example.com", "222", now))
	assert.ErrorIs(t, err, memberdomain.ErrConflict)

	err = repo.Create(ctx, newMember(memberdomain.CategoryEngineer, "b@example.com", "111", now))
	assert.ErrorIs(t, err, memberdomain.ErrConflict)

	assert.NoError(t, repo.Create(ctx, newMember(memberdomain.CategoryDoctor, "a@example.com", "111", now)))

	exists, err := repo.ExistsByEmailOrPhone(ctx, memberdomain.CategoryEngineer, "x@example.com", "111")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmailOrPhone(ctx, memberdomain.CategoryEngineer, "x@example.com", "999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSave(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	a := newMember(memberdomain.CategoryEngineer, "a@example.com", "111", now)
	b := newMember(memberdomain.CategoryEngineer, "b@example.com", "222", now)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	a.Status = memberdomain.StatusApproved
	a.ApprovedDisease = "Flu"
	a.ApprovedDate = &now
	a.FamilyMember1 = memberdomain.FamilyMember{}
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.GetByID(ctx, memberdomain.CategoryEngineer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, memberdomain.StatusApproved, got.Status)
	assert.Equal(t, "Flu", got.ApprovedDisease)
	assert.NotNil(t, got.ApprovedDate)
	assert.Empty(t, got.FamilyMember1.Email)

	a.Email = "b@example.com"
	assert.ErrorIs(t, repo.Save(ctx, a), memberdomain.ErrConflict)

	missing := newMember(memberdomain.CategoryEngineer, "c@example.com", "333", now)
	assert.ErrorIs(t, repo.Save(ctx, missing), memberdomain.ErrMemberNotFound)
}

func TestListNewestFirstWithStatusFilter(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newMember(memberdomain.CategoryEngineer, "old@example.com", "1", base)
	newer := newMember(memberdomain.CategoryEngineer, "new@example.com", "2", base.Add(time.Hour))
	newer.Status = memberdomain.StatusApproved
	doctor := newMember(memberdomain.CategoryDoctor, "doc@example.com", "3", base)
	for _, m := range []*memberdomain.Member{older, newer, doctor} {
		require.NoError(t, repo.Create(ctx, m))
	}

	all, err := repo.List(ctx, memberdomain.CategoryEngineer, memberdomain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	approved, err := repo.List(ctx, memberdomain.CategoryEngineer, memberdomain.ListFilter{Status: memberdomain.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, newer.ID, approved[0].ID)
}

func TestGetByIDMalformedIDIsNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	repo := NewPostgres(gormDB)
	for _, id := range []string{"", "not-a-uuid", "123"} {
		_, err := repo.GetByID(context.Background(), memberdomain.CategoryEngineer, id)
		assert.ErrorIs(t, err, memberdomain.ErrMemberNotFound, "id %q", id)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
