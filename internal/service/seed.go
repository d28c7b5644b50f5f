package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/models"
)

// Seeder loads reference data from CSV files. Loading the same file twice
// leaves the tables unchanged.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// LoadIngredients reads name,measurement_unit rows and returns how many were created
func (s *Seeder) LoadIngredients(ctx context.Context, r io.Reader) (int, error) {
	db := s.db.WithContext(ctx)
	return s.load(db, &models.Ingredient{}, "ingredients", r, 2, func(record []string) error {
		ingredient := models.Ingredient{Name: record[0], MeasurementUnit: record[1]}
		if err := db.Where(ingredient).FirstOrCreate(&ingredient).Error; err != nil {
			return errors.Wrapf(err, "failed to load ingredient %q", record[0])
		}
		return nil
	})
}

// LoadTags reads name,color,slug rows and returns how many were created.
// Tags are matched by slug.
func (s *Seeder) LoadTags(ctx context.Context, r io.Reader) (int, error) {
	db := s.db.WithContext(ctx)
	return s.load(db, &models.Tag{}, "tags", r, 3, func(record []string) error {
		var tag models.Tag
		err := db.Where(models.Tag{Slug: record[2]}).
			Attrs(models.Tag{Name: record[0], Color: record[1]}).
			FirstOrCreate(&tag).Error
		if err != nil {
			return errors.Wrapf(err, "failed to load tag %q", record[2])
		}
		return nil
	})
}

func (s *Seeder) load(db *gorm.DB, model interface{}, name string, r io.Reader, fields int, fn func([]string) error) (int, error) {
	var before, after int64
	if err := db.Model(model).Count(&before).Error; err != nil {
		return 0, errors.Wrapf(err, "failed to count %s", name)
	}

	loadErr := readCSV(r, fields, fn)

	if err := db.Model(model).Count(&after).Error; err != nil {
		return 0, errors.Wrapf(err, "failed to count %s", name)
	}
	created := int(after - before)
	if loadErr != nil {
		return created, loadErr
	}

	log.Log.WithField("created", created).Infof("Loaded %s", name)
	return created, nil
}

// readCSV calls fn for every record. A first row starting with "name" is a header and skipped.
func readCSV(r io.Reader, fields int, fn func([]string) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		if len(record) < fields {
			return errors.Errorf("line %d: expected %d columns, got %d", line, fields, len(record))
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}
