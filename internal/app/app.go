package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"welfare-app-go/internal/auth"
	"welfare-app-go/internal/config"
	admindomain "welfare-app-go/internal/domain/admin"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/domain/notification"
	"welfare-app-go/internal/metrics"
	"welfare-app-go/internal/ratelimit"
	"welfare-app-go/internal/transport/httpserver"
	"welfare-app-go/internal/transport/httpserver/handler"
	adminhandler "welfare-app-go/internal/transport/httpserver/handler/admin"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	membershandler "welfare-app-go/internal/transport/httpserver/handler/members"
	"welfare-app-go/pkg/logger"
)

const limiterCleanupInterval = time.Minute

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	worker     *notification.Worker
	limiter    ratelimit.Limiter
	closers    []func() error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}

	log.Info("app: initializing storage backend", "driver", cfg.DBDriver)
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	sender, err := NewSender(cfg.Email, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg.Redis, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.limiter = limiter
	a.closers = append(a.closers, closeLimiter)

	uploader, uploadDir := newUploader(cfg.Storage, log)
	registry := metrics.New()
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	fanout := notification.NewFanout(sender, cfg.Email.From, log, registry)
	a.worker = notification.NewWorker(st.notifications, fanout, notification.WorkerConfig{
		PollInterval: cfg.Notify.PollInterval,
		BatchSize:    cfg.Notify.BatchSize,
		BaseDelay:    cfg.Notify.RetryBaseDelay,
		StuckAfter:   cfg.Notify.StuckAfter,
	}, log, registry)
	notifications := notification.NewService(st.notifications, log,
		notification.WithMaxRetries(cfg.Notify.MaxRetries),
		notification.WithKick(a.worker.Kick),
	)

	members := member.NewService(st.members, tokens, log,
		member.WithUploader(uploader),
		member.WithNotifier(notifications),
		member.WithUploadTimeout(cfg.Storage.UploadTimeout),
		member.WithStatusRequiresAdmin(cfg.Auth.StatusRequiresAdmin),
	)

	admins, err := admindomain.NewService(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, tokens)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if !admins.Enabled() {
		log.Warn("app: ADMIN_EMAIL or ADMIN_PASSWORD not set, admin login disabled")
	}

	respond := common.Responder{ExposeErrors: !cfg.IsProduction()}
	handlers := handler.New(
		common.New(st.pinger, respond, log),
		membershandler.New(members, respond, cfg.MaxUploadSize, log),
		adminhandler.New(admins, notifications, respond, log),
	)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Handlers:  handlers,
		Tokens:    tokens,
		Limiter:   limiter,
		Metrics:   registry,
		UploadDir: uploadDir,
	}, log)

	a.httpServer = httpserver.New(cfg, router)
	return a, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Start launches the notification worker and limiter housekeeping.
// They stop when ctx is cancelled or Close is called.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.worker.Start(ctx)
	}()

	if memory, ok := a.limiter.(*ratelimit.MemoryLimiter); ok {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			memory.RunCleanup(ctx, limiterCleanupInterval)
		}()
	}
}

func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}
