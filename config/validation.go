package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks every setting and reports all problems at once
func ValidateConfig(cfg *Config) error {
	var problems []ValidationError

	add := func(field, msg string) {
		problems = append(problems, ValidationError{Field: field, Message: msg})
	}

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		add("SERVER_PORT", "must be numeric")
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required for postgres")
		}
		if cfg.DBUser == "" {
			add("DB_USER", "is required for postgres")
		}
		if cfg.DBPassword == "" && (cfg.Env == Production || cfg.Env == CI) {
			add("DB_PASSWORD", "is required in "+string(cfg.Env))
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for sqlite")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	if cfg.JWTSecret == "" {
		add("JWT_SECRET", "is required")
	} else if cfg.Env == Production && cfg.JWTSecret == defaultJWTSecret {
		add("JWT_SECRET", "the development default cannot be used in production")
	}
	if cfg.TokenTTL <= 0 {
		add("TOKEN_TTL", "must be positive")
	}

	if cfg.DefaultPageSize < 1 {
		add("PAGE_SIZE", "must be at least 1")
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		add("MAX_PAGE_SIZE", "must not be smaller than PAGE_SIZE")
	}
	if cfg.MinIngredientAmount < 1 {
		add("MIN_INGREDIENT_AMOUNT", "must be at least 1")
	}
	if cfg.RecipeCreateLimit < 0 {
		add("RECIPE_CREATE_LIMIT", "must not be negative")
	}

	switch cfg.ImageStorage {
	case "local":
		if cfg.MediaRoot == "" {
			add("MEDIA_ROOT", "is required for local image storage")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			add("S3_BUCKET_NAME", "is required for s3 image storage")
		}
	default:
		add("IMAGE_STORAGE", fmt.Sprintf("unsupported storage %q", cfg.ImageStorage))
	}

	if len(problems) == 0 {
		return nil
	}

	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
}
