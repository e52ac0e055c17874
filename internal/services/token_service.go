package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	customerrors "github.com/axellelanca/linkshorter/internal/errors"
	"github.com/axellelanca/linkshorter/internal/models"
	"github.com/axellelanca/linkshorter/internal/repository"
	"github.com/axellelanca/linkshorter/internal/store"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

// TokenService manages bearer tokens. Every method holds the store lock for
// its whole duration.
type TokenService struct {
	store *store.Store
}

// NewTokenService returns a TokenService backed by st.
func NewTokenService(st *store.Store) *TokenService {
	return &TokenService{store: st}
}

// AddToken stores token with an optional lifetime, replacing any existing row
// for the same token. Re-adding a token is how its expiry is changed.
// Parameters:
//   - token: the opaque token value
//   - seconds: lifetime relative to now, nil for a token that never expires
//
// Returns:
//   - error: ErrStorageFailure when the upsert fails
func (s *TokenService) AddToken(ctx context.Context, token string, seconds *int64) error {
	expiry := ttl.FromSeconds(seconds)
	return s.store.Do(ctx, func(db *gorm.DB) error {
		return customerrors.Storage("add token", repository.NewTokenRepository(db).UpsertToken(token, expiry))
	})
}

// RemoveToken deletes token and reports whether it existed.
func (s *TokenService) RemoveToken(ctx context.Context, token string) (bool, error) {
	var existed bool
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		existed, err = repository.NewTokenRepository(db).DeleteToken(token)
		return customerrors.Storage("remove token", err)
	})
	return existed, err
}

// LocateToken returns the stored row for token, expired or not.
// It returns ErrTokenNotFound when there is none.
func (s *TokenService) LocateToken(ctx context.Context, token string) (*models.Token, error) {
	var found *models.Token
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		found, err = repository.NewTokenRepository(db).FindToken(token)
		return customerrors.Storage("locate token", err)
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", customerrors.ErrTokenNotFound, token)
	}
	return found, nil
}

// ListTokens returns a snapshot of every stored token.
func (s *TokenService) ListTokens(ctx context.Context) ([]models.Token, error) {
	var tokens []models.Token
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		tokens, err = repository.NewTokenRepository(db).ListTokens()
		return customerrors.Storage("list tokens", err)
	})
	return tokens, err
}

// IsTokenAllowed reports whether token may create mappings.
// Parameters:
//   - token: the token sent by the caller, possibly empty
//
// Returns:
//   - bool: true only when the token exists and has not expired
//   - error: ErrStorageFailure when the lookup fails
func (s *TokenService) IsTokenAllowed(ctx context.Context, token string) (bool, error) {
	var allowed bool
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		allowed, err = tokenAllowed(repository.NewTokenRepository(db), token)
		return err
	})
	return allowed, err
}

// tokenAllowed is IsTokenAllowed for callers already holding the store lock.
func tokenAllowed(repo repository.TokenRepository, token string) (bool, error) {
	found, err := repo.FindToken(token)
	if err != nil {
		return false, customerrors.Storage("check token", err)
	}
	// Unknown tokens are simply not allowed, this is not an error
	if found == nil {
		return false, nil
	}
	// A corrupt expiry reads as expired, so such a token is refused
	return !found.TTL.Expired(), nil
}
