package main

import (
	"flag"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/log"
)

func main() {
	rollback := flag.Bool("rollback", false, "Roll back the last applied migration")
	dir := flag.String("dir", "migrations", "Directory containing the SQL migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to load configuration")
	}
	log.Init("migrate", cfg.LogLevel, cfg.Env == config.Production)

	db, err := database.New(cfg)
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to connect to database")
	}

	if *rollback {
		name, err := database.RollbackLast(db, *dir)
		if err != nil {
			log.Log.WithError(err).Fatal("Rollback failed")
		}
		log.Log.WithField("migration", name).Info("Rollback complete")
		return
	}

	if err := database.RunMigrations(db, *dir); err != nil {
		log.Log.WithError(err).Fatal("Migration failed")
	}
	log.Log.Info("All migrations applied successfully")
}
