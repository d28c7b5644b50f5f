package service

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// addRelation inserts row unless a row matching pair already exists.
// The count and the insert share a transaction and the unique index on the
// pair catches concurrent inserts that slip past the count.
func addRelation[T any](ctx context.Context, db *gorm.DB, row *T, pair map[string]interface{}, duplicate string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(new(T)).Where(pair).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check relation")
		}
		if count > 0 {
			return withDetail(ErrDuplicate, duplicate)
		}
		if err := tx.Create(row).Error; err != nil {
			if isDuplicate(err) {
				return withDetail(ErrDuplicate, duplicate)
			}
			return errors.Wrap(err, "failed to create relation")
		}
		return nil
	})
}

// removeRelation deletes the row matching pair, ErrRelationMissing if there is none
func removeRelation[T any](ctx context.Context, db *gorm.DB, pair map[string]interface{}, missing string) error {
	result := db.WithContext(ctx).Where(pair).Delete(new(T))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete relation")
	}
	if result.RowsAffected == 0 {
		return withDetail(ErrRelationMissing, missing)
	}
	return nil
}
