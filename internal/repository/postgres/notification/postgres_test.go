package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"welfare-app-go/internal/domain/member"
	notificationdomain "welfare-app-go/internal/domain/notification"
	"welfare-app-go/internal/mailer"
	"welfare-app-go/pkg/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(&notificationdomain.Job{}))
	return gormDB
}

type flakySender struct {
	fail map[string]bool
	sent []string
}

func (s *flakySender) Send(_ context.Context, msg mailer.Message) error {
	if s.fail[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	s.sent = append(s.sent, msg.To)
	return nil
}

func testMember() member.Member {
	return member.Member{
		ID:       "6a0f1f5e-2d4b-4d59-9c55-0c3b8e7f1a21",
		Category: member.CategoryDoctor,
		Name:     "Grace",
		Email:    "grace@example.com",
		Nominee:  member.Nominee{Name: "Alan", Email: "alan@example.com"},
	}
}

func TestCreateGetList(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	service := notificationdomain.NewService(repo, logger.Nop())
	ctx := context.Background()

	require.NoError(t, service.MemberRegistered(ctx, testMember()))

	jobs, err := repo.List(ctx, notificationdomain.ListFilter{Status: notificationdomain.StatusPending})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Len(t, jobs[0].Envelopes, 2)
	assert.Equal(t, notificationdomain.RoleMember, jobs[0].Envelopes[0].Role)
	assert.Equal(t, []string{"alan@example.com"}, jobs[0].Envelopes[0].Bcc)
	assert.Empty(t, jobs[0].Delivered)

	got, err := repo.GetByID(ctx, jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, notificationdomain.KindWelcome, got.Kind)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, notificationdomain.ErrJobNotFound)

	failed, err := repo.List(ctx, notificationdomain.ListFilter{Status: notificationdomain.StatusFailed})
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestClaimDueMarksProcessing(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	service := notificationdomain.NewService(repo, logger.Nop())
	ctx := context.Background()

	require.NoError(t, service.MemberRegistered(ctx, testMember()))
	require.NoError(t, service.MemberUpdated(ctx, testMember(), []member.Change{{Field: "age", New: "50"}}))

	now := time.Now().UTC()
	claimed, err := repo.ClaimDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, notificationdomain.StatusProcessing, claimed[0].Status)

	claimed2, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, claimed2, 1)
	assert.NotEqual(t, claimed[0].ID, claimed2[0].ID)

	none, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	reset, err := repo.ResetStuck(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), reset)
}

func TestWorkerAgainstDatabase(t *testing.T) {
	repo := NewPostgres(setupTestDB(t))
	ctx := context.Background()
	sender := &flakySender{fail: map[string]bool{"alan@example.com": true}}
	service := notificationdomain.NewService(repo, logger.Nop(), notificationdomain.WithMaxRetries(0))
	worker := notificationdomain.NewWorker(repo,
		notificationdomain.NewFanout(sender, "noreply@welfare.test", logger.Nop(), nil),
		notificationdomain.WorkerConfig{},
		logger.Nop(),
		nil,
	)

	require.NoError(t, service.MemberRegistered(ctx, testMember()))
	assert.Equal(t, 1, worker.ProcessOnce(ctx))

	jobs, err := repo.List(ctx, notificationdomain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, notificationdomain.StatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, notificationdomain.Roles{notificationdomain.RoleMember}, job.Delivered)
	assert.Contains(t, job.LastError, "mailbox unavailable")
	assert.Equal(t, []string{"grace@example.com"}, sender.sent)

	sender.fail = nil
	retried, err := service.Retry(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, notificationdomain.StatusPending, retried.Status)

	assert.Equal(t, 1, worker.ProcessOnce(ctx))
	done, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, notificationdomain.StatusCompleted, done.Status)
	assert.Equal(t, []string{"grace@example.com", "alan@example.com"}, sender.sent)
}

func TestGetByIDMalformedIDIsNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	_, err = NewPostgres(gormDB).GetByID(context.Background(), "job-1")
	assert.ErrorIs(t, err, notificationdomain.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
