// Package store owns the single SQLite connection shared by the whole process.
//
// Every operation runs through Do, which holds one mutex for its duration:
// reads and writes are serialized, and multi-statement work executed inside a
// single Do call is atomic with respect to other callers.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/axellelanca/linkshorter/internal/models"
)

// Store is a lock-guarded handle to the database.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	// One connection: ":memory:" databases live on it, and the mutex below
	// already serializes every caller.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the shorters and tokens tables.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.AutoMigrate(&models.Shorter{}, &models.Token{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Do runs fn while holding the store lock.
func (s *Store) Do(ctx context.Context, fn func(db *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db.WithContext(ctx))
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
