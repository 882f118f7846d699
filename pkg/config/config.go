package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ErrMissingDatabaseURL is returned when no metadata store connection string is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL not set")

type Config struct {
	Env  string
	Port int

	Database  DatabaseConfig
	Redis     RedisConfig
	PDF       PDFConfig
	PageCache PageCacheConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL            string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PDFConfig describes where PDFs live and how much of a file may be loaded for extraction.
type PDFConfig struct {
	Dir                 string
	MaxExtractBytes     int64
	AccessLogMaxEntries int
}

// PageCacheConfig toggles caching of extracted single-page documents.
type PageCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Workers int
}

// RateLimitConfig throttles PDF routes per client address. Requests <= 0 disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AdminConfig gates the metadata inspection routes.
type AdminConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration for the server. A missing database URL is an error.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

// LoadWithoutDatabase reads configuration for commands that never touch the metadata store.
func LoadWithoutDatabase() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if dbURL == "" {
		dbURL = strings.TrimSpace(v.GetString("MONGO_URI"))
	}
	cfg.Database = DatabaseConfig{
		URL:            dbURL,
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnectTimeout: parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	maxEntries := v.GetInt("ACCESS_LOG_MAX_ENTRIES")
	if maxEntries < 0 {
		maxEntries = 0
	}
	maxExtract := v.GetInt64("PDF_MAX_EXTRACT_BYTES")
	if maxExtract < 0 {
		maxExtract = 0
	}
	cfg.PDF = PDFConfig{
		Dir:                 v.GetString("PDF_DIR"),
		MaxExtractBytes:     maxExtract,
		AccessLogMaxEntries: maxEntries,
	}

	cfg.PageCache = PageCacheConfig{
		Enabled: v.GetBool("ENABLE_PAGE_CACHE"),
		TTL:     parseDuration(v.GetString("PAGE_CACHE_TTL"), 30*time.Minute),
		Workers: v.GetInt("PAGE_CACHE_WORKERS"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("RATE_LIMIT"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	cfg.Admin = AdminConfig{
		JWTSecret: v.GetString("ADMIN_JWT_SECRET"),
		TokenTTL:  parseDuration(v.GetString("ADMIN_TOKEN_TTL"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// AdminEnabled reports whether the admin metadata routes should be mounted.
func (c *Config) AdminEnabled() bool {
	return c != nil && c.Admin.JWTSecret != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("PDF_DIR", "./pdfs")
	v.SetDefault("PDF_MAX_EXTRACT_BYTES", 64*1024*1024)
	v.SetDefault("ACCESS_LOG_MAX_ENTRIES", 0)

	v.SetDefault("ENABLE_PAGE_CACHE", false)
	v.SetDefault("PAGE_CACHE_TTL", "30m")
	v.SetDefault("PAGE_CACHE_WORKERS", 2)

	v.SetDefault("RATE_LIMIT", 0)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("ADMIN_JWT_SECRET", "")
	v.SetDefault("ADMIN_TOKEN_TTL", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
