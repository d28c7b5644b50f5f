package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/models"
)

// downSuffix marks the file that reverts the migration of the same name
const downSuffix = ".down.sql"

// AutoMigrate creates the schema from the gorm models
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Recipe{}, "Tags", &models.RecipeTag{}); err != nil {
		return fmt.Errorf("failed to set up recipe tags join table: %w", err)
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.IngredientRecipe{},
		&models.RecipeTag{},
		&models.Follow{},
		&models.Favorite{},
		&models.ShoppingCart{},
	)
}

// RunMigrations executes all SQL migration files in the migrations directory.
// SQLite databases (development and tests) are migrated from the models instead.
func RunMigrations(db *gorm.DB, migrationsDir string) error {
	if db.Dialector.Name() == "sqlite" {
		log.Log.Info("Using GORM auto-migration for SQLite")
		return AutoMigrate(db)
	}

	if err := db.SetupJoinTable(&models.Recipe{}, "Tags", &models.RecipeTag{}); err != nil {
		return fmt.Errorf("failed to set up recipe tags join table: %w", err)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") && !strings.HasSuffix(entry.Name(), downSuffix) {
			files = append(files, entry.Name())
		}
	}
	// Sort files by name to ensure correct order
	sort.Strings(files)

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range files {
		var count int64
		if err := db.Table("schema_migrations").Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Log.Debugf("Skipping migration %s (already applied)", name)
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (name) VALUES (?)", name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Log.Infof("Applied migration %s", name)
	}

	return nil
}

// RollbackLast reverts the most recently applied migration using its .down.sql
// companion and returns the name of the reverted migration.
func RollbackLast(db *gorm.DB, migrationsDir string) (string, error) {
	var names []string
	err := db.Table("schema_migrations").Order("applied_at DESC, id DESC").Limit(1).Pluck("name", &names).Error
	if err != nil {
		return "", fmt.Errorf("failed to find last migration: %w", err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no migrations to roll back")
	}
	name := names[0]

	downFile := strings.TrimSuffix(name, ".sql") + downSuffix
	content, err := os.ReadFile(filepath.Join(migrationsDir, downFile))
	if err != nil {
		return "", fmt.Errorf("failed to read rollback file %s: %w", downFile, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to execute rollback %s: %w", downFile, err)
		}
		return tx.Exec("DELETE FROM schema_migrations WHERE name = ?", name).Error
	})
	if err != nil {
		return "", err
	}

	log.Log.Infof("Rolled back migration %s", name)
	return name, nil
}
