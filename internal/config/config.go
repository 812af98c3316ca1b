package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	LogLevel    string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	ElasticURL  string
	CORSOrigins string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	StorageDriver  string
	StoragePath    string
	StorageBaseURL string
	UploadMaxBytes int64

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	NotificationTTL   time.Duration
	ReportCacheTTL    time.Duration
	ReferenceCacheTTL time.Duration
	AuditQueueSize    int
	WorkerConcurrency int
	LoginRateLimit    int

	SeedAdminEmail    string
	SeedAdminPassword string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LED Platform API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.base_url", "/uploads")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("cloudinary.folder", "led/documents")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@led-platform.local")
	v.SetDefault("notification.ttl", "720h")
	v.SetDefault("reports.cache_ttl", "5m")
	v.SetDefault("reference.cache_ttl", "10m")
	v.SetDefault("audit.queue_size", 512)
	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("auth.login_rate_limit", 10)

	accessTTL, err := parseDuration(v, "jwt.access_ttl")
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := parseDuration(v, "jwt.refresh_ttl")
	if err != nil {
		return Config{}, err
	}
	notificationTTL, err := parseDuration(v, "notification.ttl")
	if err != nil {
		return Config{}, err
	}
	reportTTL, err := parseDuration(v, "reports.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	referenceTTL, err := parseDuration(v, "reference.cache_ttl")
	if err != nil {
		return Config{}, err
	}

	maxMB := v.GetInt64("upload.max_mb")
	if maxMB <= 0 {
		maxMB = 10
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		ElasticURL:             v.GetString("elastic.url"),
		CORSOrigins:            v.GetString("cors.origins"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:         accessTTL,
		RefreshTokenTTL:        refreshTTL,
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		StoragePath:            v.GetString("storage.path"),
		StorageBaseURL:         v.GetString("storage.base_url"),
		UploadMaxBytes:         maxMB * 1024 * 1024,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		SMTPHost:               v.GetString("smtp.host"),
		SMTPPort:               v.GetInt("smtp.port"),
		SMTPUser:               v.GetString("smtp.user"),
		SMTPPass:               v.GetString("smtp.pass"),
		SMTPFrom:               v.GetString("smtp.from"),
		NotificationTTL:        notificationTTL,
		ReportCacheTTL:         reportTTL,
		ReferenceCacheTTL:      referenceTTL,
		AuditQueueSize:         v.GetInt("audit.queue_size"),
		WorkerConcurrency:      v.GetInt("worker.concurrency"),
		LoginRateLimit:         v.GetInt("auth.login_rate_limit"),
		SeedAdminEmail:         v.GetString("seed.admin_email"),
		SeedAdminPassword:      v.GetString("seed.admin_password"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.StorageDriver != "local" && cfg.StorageDriver != "cloudinary" {
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.AuditQueueSize <= 0 {
		cfg.AuditQueueSize = 512
	}

	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 5
	}

	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
