package db

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
	"welfare-app-go/pkg/logger"
)

const migrationsDirName = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending SQL migrations from the embedded migrations directory.
func Migrate(db *gorm.DB, log logger.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.Up(sqlDB, migrationsDirName); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type gooseLogger struct {
	log logger.Logger
}

func (l gooseLogger) Printf(format string, args ...interface{}) {
	l.log.Info(fmt.Sprintf("migrate: "+format, args...))
}

func (l gooseLogger) Fatalf(format string, args ...interface{}) {
	l.log.Critical(fmt.Sprintf("migrate: "+format, args...))
}
