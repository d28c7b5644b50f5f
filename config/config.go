package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// defaultJWTSecret is only acceptable outside production, ValidateConfig rejects it there.
const defaultJWTSecret = "foodgram-insecure-dev-secret"

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort         string
	ServerHost         string
	CORSAllowedOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Recipes
	MinIngredientAmount int
	RecipeCreateLimit   int

	// Media storage: "local" writes under MediaRoot, "s3" uploads to S3Bucket
	ImageStorage string
	MediaRoot    string
	MediaURL     string
	S3Bucket     string
	AWSRegion    string

	// PDFFontPath points at a TTF font with Cyrillic glyphs; core Helvetica is used when empty
	PDFFontPath string

	LogLevel string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	loadDotEnvs(env)

	cfg := &Config{Env: env}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Sensitive values come from Docker secrets outside CI
	if env != CI {
		loadSecrets(cfg)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	var err error

	cfg.ServerPort = getEnv("SERVER_PORT", "8000")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnv("DB_NAME", "foodgram")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "foodgram.db")

	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnv("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return err
	}

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	if cfg.JWTSecret == "" && cfg.Env != Production && cfg.Env != CI {
		cfg.JWTSecret = defaultJWTSecret
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return err
	}

	if cfg.DefaultPageSize, err = getEnvInt("PAGE_SIZE", 10); err != nil {
		return err
	}
	if cfg.MaxPageSize, err = getEnvInt("MAX_PAGE_SIZE", 50); err != nil {
		return err
	}
	if cfg.MinIngredientAmount, err = getEnvInt("MIN_INGREDIENT_AMOUNT", 1); err != nil {
		return err
	}
	if cfg.RecipeCreateLimit, err = getEnvInt("RECIPE_CREATE_LIMIT", 30); err != nil {
		return err
	}

	cfg.ImageStorage = getEnv("IMAGE_STORAGE", "local")
	cfg.MediaRoot = getEnv("MEDIA_ROOT", "media")
	cfg.MediaURL = getEnv("MEDIA_URL", "/media/")
	cfg.S3Bucket = getEnv("S3_BUCKET_NAME", "foodgram-recipe-images")
	cfg.AWSRegion = os.Getenv("AWS_REGION")

	cfg.PDFFontPath = os.Getenv("PDF_FONT_PATH")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return nil
}

// loadSecrets overrides sensitive values with Docker secrets when they exist
func loadSecrets(cfg *Config) {
	if v := readSecret("db_user"); v != "" {
		cfg.DBUser = v
	}
	if v := readSecret("db_password"); v != "" {
		cfg.DBPassword = v
	}
	if v := readSecret("jwt_secret"); v != "" {
		cfg.JWTSecret = v
	}
	if v := readSecret("redis_password"); v != "" {
		cfg.RedisPassword = v
	}
	if v := readSecret("redis_url"); v != "" {
		cfg.RedisURL = v
	}
}

// ListenAddr returns the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
