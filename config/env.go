package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := os.Getenv("ENV"); env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment() bool {
	return GetEnvironment() == Development
}

// IsProduction returns true if the current environment is production
func IsProduction() bool {
	return GetEnvironment() == Production
}

// loadDotEnvs loads .env files for the given environment. Files loaded first win,
// godotenv never overrides a variable that is already set.
//
// .env.[env].local holds credentials and is never committed, .env.[env] holds
// connection settings and .env carries values shared by every environment.
func loadDotEnvs(env Environment) {
	if env == CI {
		return
	}
	_ = godotenv.Load(".env." + string(env) + ".local")
	if env != Test {
		_ = godotenv.Load(".env.local")
	}
	_ = godotenv.Load(".env." + string(env))
	_ = godotenv.Load(".env")
}
