package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GormPinger struct {
	db *gorm.DB
}

func NewGormPinger(db *gorm.DB) *GormPinger {
	return &GormPinger{db: db}
}

func (p *GormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool behind a gorm handle.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
