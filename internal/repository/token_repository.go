package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/axellelanca/linkshorter/internal/models"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

// TokenRepository defines data access for bearer tokens.
type TokenRepository interface {
	UpsertToken(token string, expiry ttl.Expiry) error
	DeleteToken(token string) (bool, error)
	FindToken(token string) (*models.Token, error)
	ListTokens() ([]models.Token, error)
}

// GormTokenRepository implements TokenRepository with GORM.
type GormTokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a repository bound to db.
func NewTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// UpsertToken inserts token, replacing the expiry of an existing row in the same statement.
func (r *GormTokenRepository) UpsertToken(token string, expiry ttl.Expiry) error {
	row := models.Token{Token: token, TTL: expiry}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"ttl"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}
	return nil
}

// DeleteToken removes token and reports whether a row existed.
func (r *GormTokenRepository) DeleteToken(token string) (bool, error) {
	res := r.db.Where("token = ?", token).Delete(&models.Token{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete token: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindToken returns the row for token, or nil when there is none. A row whose
// key is not byte-for-byte equal to the query is treated as absent.
func (r *GormTokenRepository) FindToken(token string) (*models.Token, error) {
	var rows []models.Token
	if err := r.db.Where("token = ?", token).Limit(2).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if len(rows) != 1 || rows[0].Token != token {
		return nil, nil
	}
	return &rows[0], nil
}

// ListTokens returns every stored token ordered by insertion.
func (r *GormTokenRepository) ListTokens() ([]models.Token, error) {
	var tokens []models.Token
	if err := r.db.Order("id").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}
