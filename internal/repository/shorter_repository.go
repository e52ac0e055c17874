package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/axellelanca/linkshorter/internal/models"
)

// ShorterRepository defines data access for path mappings.
type ShorterRepository interface {
	UpsertShorter(shorter *models.Shorter) error
	DeleteShorter(path string) (bool, error)
	FindShorter(path string) (*models.Shorter, error)
	DeleteExpiredShorters(nowMicros int64) (int64, error)
}

// GormShorterRepository implements ShorterRepository with GORM.
type GormShorterRepository struct {
	db *gorm.DB
}

// NewShorterRepository returns a repository bound to db.
func NewShorterRepository(db *gorm.DB) *GormShorterRepository {
	return &GormShorterRepository{db: db}
}

// UpsertShorter inserts the mapping, replacing url, ttl and token of an
// existing row for the same path in one statement.
func (r *GormShorterRepository) UpsertShorter(shorter *models.Shorter) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "ttl", "token"}),
	}).Create(shorter).Error
	if err != nil {
		return fmt.Errorf("failed to upsert shorter %q: %w", shorter.Path, err)
	}
	return nil
}

// DeleteShorter removes the mapping for path and reports whether one existed.
func (r *GormShorterRepository) DeleteShorter(path string) (bool, error) {
	res := r.db.Where("path = ?", path).Delete(&models.Shorter{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete shorter %q: %w", path, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindShorter returns the row for path, expired or not, or nil when there is none.
func (r *GormShorterRepository) FindShorter(path string) (*models.Shorter, error) {
	var rows []models.Shorter
	if err := r.db.Where("path = ?", path).Limit(2).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find shorter %q: %w", path, err)
	}
	if len(rows) != 1 || rows[0].Path != path {
		return nil, nil
	}
	return &rows[0], nil
}

// DeleteExpiredShorters removes rows whose expiry is at or before nowMicros.
// Rows without an expiry, or with a non-numeric one, are left alone.
func (r *GormShorterRepository) DeleteExpiredShorters(nowMicros int64) (int64, error) {
	res := r.db.Where("ttl IS NOT NULL AND typeof(ttl) = 'integer' AND ttl <= ?", nowMicros).
		Delete(&models.Shorter{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired shorters: %w", res.Error)
	}
	return res.RowsAffected, nil
}
