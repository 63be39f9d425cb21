package app

import (
	"context"
	"fmt"

	"welfare-app-go/internal/config"
	"welfare-app-go/internal/db"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/domain/notification"
	"welfare-app-go/internal/repository/inmemory"
	mongomember "welfare-app-go/internal/repository/mongo/member"
	mongonotification "welfare-app-go/internal/repository/mongo/notification"
	pgmember "welfare-app-go/internal/repository/postgres/member"
	pgnotification "welfare-app-go/internal/repository/postgres/notification"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/pkg/logger"
)

type stores struct {
	members       member.Repository
	notifications notification.Repository
	pinger        common.Pinger
	close         func() error
}

func openStores(ctx context.Context, cfg config.Config, log logger.Logger) (stores, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return openPostgres(cfg, log)
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverMemory:
		log.Warn("app: using in-memory storage, data is lost on restart")
		return stores{
			members:       inmemory.NewMemberRepository(),
			notifications: inmemory.NewNotificationRepository(),
			close:         func() error { return nil },
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func openPostgres(cfg config.Config, log logger.Logger) (stores, error) {
	gormDB, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return stores{}, err
	}
	if err := db.Migrate(gormDB, log); err != nil {
		_ = db.Close(gormDB)
		return stores{}, err
	}

	return stores{
		members:       pgmember.NewPostgres(gormDB),
		notifications: pgnotification.NewPostgres(gormDB),
		pinger:        db.NewGormPinger(gormDB),
		close:         func() error { return db.Close(gormDB) },
	}, nil
}

func openMongo(ctx context.Context, cfg config.Config, log logger.Logger) (stores, error) {
	client, database, err := db.NewMongo(ctx, cfg.Mongo, log)
	if err != nil {
		return stores{}, err
	}
	disconnect := func() error { return client.Disconnect(context.Background()) }

	members := mongomember.NewMongo(database)
	notifications := mongonotification.NewMongo(database)
	if err := members.EnsureIndexes(ctx); err != nil {
		_ = disconnect()
		return stores{}, fmt.Errorf("mongo member indexes: %w", err)
	}
	if err := notifications.EnsureIndexes(ctx); err != nil {
		_ = disconnect()
		return stores{}, fmt.Errorf("mongo notification indexes: %w", err)
	}

	return stores{
		members:       members,
		notifications: notifications,
		pinger:        db.NewMongoPinger(client),
		close:         disconnect,
	}, nil
}
