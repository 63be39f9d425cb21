package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestGormPingerSuccess(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectPing()

	err := NewGormPinger(gormDB).Ping(context.Background())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPingerFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := NewGormPinger(gormDB).Ping(context.Background())

	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
