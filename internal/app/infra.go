package app

import (
	"context"
	"net/http"

	"welfare-app-go/internal/config"
	"welfare-app-go/internal/mailer"
	"welfare-app-go/internal/ratelimit"
	"welfare-app-go/internal/storage"
	"welfare-app-go/pkg/logger"
)

const rateLimitPrefix = "welfare:ratelimit:"

// NewSender picks the email transport once from config: SendGrid when an
// API key is set, SMTP when credentials are set, otherwise the log sender.
// Network transports are wrapped with transient error retries.
func NewSender(cfg config.EmailConfig, log logger.Logger) (mailer.Sender, error) {
	switch {
	case cfg.SendGridAPIKey != "":
		log.Info("mailer: using sendgrid", "from", cfg.From)
		client := mailer.NewSendGridClient(cfg.SendGridAPIKey, cfg.From, cfg.FromName,
			mailer.WithBaseURL(cfg.SendGridBaseURL),
			mailer.WithHTTPClient(&http.Client{Timeout: cfg.SendTimeout}),
		)
		return mailer.NewRetrying(client, log), nil
	case cfg.SMTPUser != "" && cfg.SMTPPassword != "":
		log.Info("mailer: using smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			FromName: cfg.FromName,
			Timeout:  cfg.SendTimeout,
		})
		if err != nil {
			return nil, err
		}
		return mailer.NewRetrying(sender, log), nil
	default:
		log.Warn("mailer: no email transport configured, emails are logged only")
		return mailer.NewLogSender(log), nil
	}
}

func newLimiter(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (ratelimit.Limiter, func() error, error) {
	if cfg.Addr == "" {
		return ratelimit.NewMemoryLimiter(), func() error { return nil }, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("ratelimit: using redis", "addr", cfg.Addr)
	return ratelimit.NewRedisLimiter(client, rateLimitPrefix), client.Close, nil
}

// newUploader returns the uploader plus the directory to serve under /uploads,
// which is empty when files go to object storage.
func newUploader(cfg config.StorageConfig, log logger.Logger) (*storage.Uploader, string) {
	if cfg.S3Enabled() {
		log.Info("storage: using s3", "bucket", cfg.S3Bucket, "endpoint", cfg.S3Endpoint)
		return storage.NewUploader(storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})), ""
	}

	log.Warn("storage: S3 not configured, storing uploads locally", "dir", cfg.LocalDir)
	return storage.NewUploader(storage.NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)), cfg.LocalDir
}
