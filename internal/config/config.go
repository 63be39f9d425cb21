package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"welfare-app-go/pkg/logger"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	// DriverMemory keeps everything in process. Development and tests only.
	DriverMemory = "memory"
)

type Config struct {
	HTTPPort      string
	Env           string
	DBDriver      string
	CORSOrigins   []string
	MaxUploadSize int64
	DB            DBConfig
	Mongo         MongoConfig
	Auth          AuthConfig
	Email         EmailConfig
	Storage       StorageConfig
	Notify        NotifyConfig
	RateLimit     RateLimitConfig
	Redis         RedisConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	AdminEmail          string
	AdminPassword       string
	StatusRequiresAdmin bool
}

type EmailConfig struct {
	SendGridAPIKey  string
	SendGridBaseURL string
	From            string
	FromName        string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SendTimeout     time.Duration
}

type StorageConfig struct {
	S3Endpoint    string
	S3Bucket      string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3PublicURL   string
	LocalDir      string
	PublicBaseURL string
	UploadTimeout time.Duration
}

type NotifyConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	StuckAfter     time.Duration
}

type RateLimitConfig struct {
	AuthLimit  int
	AuthWindow time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:      getEnv("HTTP_PORT", getEnv("PORT", "5000")),
		Env:           getEnv("ENV", EnvDevelopment),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:5000"}),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "welfare"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "welfare"),
			ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			TokenTTL:            getEnvDuration("JWT_TTL", 30*24*time.Hour),
			AdminEmail:          strings.ToLower(getEnv("ADMIN_EMAIL", "")),
			AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
			StatusRequiresAdmin: getEnvBool("STATUS_REQUIRES_ADMIN", false),
		},
		Email: EmailConfig{
			SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
			SendGridBaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			From:            getEnv("SENDGRID_FROM", getEnv("EMAIL_FROM", getEnv("EMAIL_USER", ""))),
			FromName:        getEnv("EMAIL_FROM_NAME", ""),
			SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:        getEnvInt("SMTP_PORT", 587),
			SMTPUser:        getEnv("EMAIL_USER", ""),
			SMTPPassword:    getEnv("EMAIL_PASS", ""),
			SendTimeout:     getEnvDuration("EMAIL_SEND_TIMEOUT", 20*time.Second),
		},
		Storage: StorageConfig{
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3AccessKey:   getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
			S3PublicURL:   getEnv("S3_PUBLIC_URL", ""),
			LocalDir:      getEnv("UPLOAD_DIR", "uploads"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
			UploadTimeout: getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second),
		},
		Notify: NotifyConfig{
			PollInterval:   getEnvDuration("NOTIFY_POLL_INTERVAL", 10*time.Second),
			BatchSize:      getEnvInt("NOTIFY_BATCH_SIZE", 10),
			MaxRetries:     getEnvInt("NOTIFY_MAX_RETRIES", 5),
			RetryBaseDelay: getEnvDuration("NOTIFY_RETRY_BASE_DELAY", time.Minute),
			StuckAfter:     getEnvDuration("NOTIFY_STUCK_AFTER", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			AuthLimit:  getEnvInt("RATE_LIMIT_AUTH", 20),
			AuthWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("config: JWT_SECRET not set, using development secret")
		cfg.Auth.JWTSecret = "development-secret"
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("config: JWT_SECRET is required when ENV is %q", c.Env)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

func (c StorageConfig) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
