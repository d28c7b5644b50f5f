package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	ingredients := flag.String("ingredients", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
	tags := flag.String("tags", "data/tags.csv", "CSV file with name,color,slug rows, empty to skip")
	migrations := flag.String("migrations", "migrations", "Directory containing the SQL migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to load configuration")
	}
	log.Init("seed", cfg.LogLevel, cfg.Env == config.Production)

	db, err := database.New(cfg)
	if err != nil {
		log.Log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.RunMigrations(db, *migrations); err != nil {
		log.Log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx := context.Background()
	seeder := service.NewSeeder(db)

	if *ingredients != "" {
		load(*ingredients, func(f *os.File) (int, error) { return seeder.LoadIngredients(ctx, f) })
	}
	if *tags != "" {
		load(*tags, func(f *os.File) (int, error) { return seeder.LoadTags(ctx, f) })
	}
}

func load(path string, fn func(*os.File) (int, error)) {
	f, err := os.Open(path)
	if err != nil {
		log.Log.WithError(err).Fatalf("Failed to open %s", path)
	}
	defer f.Close()

	created, err := fn(f)
	if err != nil {
		log.Log.WithError(err).WithField("file", path).Fatal("Seeding failed")
	}
	log.Log.WithFields(logrus.Fields{"file": path, "created": created}).Info("Seeded reference data")
}
