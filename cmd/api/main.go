package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to load configuration")
	}
	log.Init("api", cfg.LogLevel, cfg.Env == config.Production)

	db, err := database.New(cfg)
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Log.WithError(err).Fatal("Failed to run migrations")
	}

	var redisClient *redis.Client
	if client, err := database.NewRedisClient(cfg); err != nil {
		if cfg.Env == config.Production {
			log.Log.WithError(err).Fatal("Failed to connect to Redis")
		}
		log.Log.WithError(err).Warn("Redis unavailable, running without rate limiting and token revocation")
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	srv, err := server.New(context.Background(), cfg, db, redisClient)
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to initialise server")
	}

	log.Log.WithField("env", cfg.Env).Info("Starting Foodgram API")
	if err := srv.Start(); err != nil {
		log.Log.WithError(err).Fatal("Server error")
	}
	log.Log.Info("Server stopped")
}
