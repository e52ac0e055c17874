// Package services contains the lock-guarded operations behind the HTTP
// handlers and the admin commands.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/axellelanca/linkshorter/internal/cache"
	customerrors "github.com/axellelanca/linkshorter/internal/errors"
	"github.com/axellelanca/linkshorter/internal/models"
	"github.com/axellelanca/linkshorter/internal/repository"
	"github.com/axellelanca/linkshorter/internal/store"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

// maxPathRetries bounds the attempts to find a free generated path.
const maxPathRetries = 5

// ShorterService manages path mappings.
type ShorterService struct {
	store      *store.Store
	cache      *cache.ShorterCache
	pathLength int
}

// NewShorterService returns a ShorterService backed by st. c may be nil to
// disable the resolve cache; pathLength <= 0 selects DefaultPathLength.
func NewShorterService(st *store.Store, c *cache.ShorterCache, pathLength int) *ShorterService {
	if pathLength <= 0 {
		pathLength = DefaultPathLength
	}
	return &ShorterService{store: st, cache: c, pathLength: pathLength}
}

// CreateRequest carries the parameters of a write request.
type CreateRequest struct {
	Token   string
	Path    string
	URL     string
	Seconds *int64
}

// InsertShorter maps path to target, replacing any existing mapping for path.
// This is the admin write path: no token is checked and target is stored as is.
// Parameters:
//   - path: the short path, without leading slash
//   - target: the URL visitors are redirected to
//   - seconds: lifetime relative to now, nil for a mapping that never expires
//   - token: recorded alongside the row when not nil
//
// Returns:
//   - error: ErrStorageFailure when the upsert fails
func (s *ShorterService) InsertShorter(ctx context.Context, path, target string, seconds *int64, token *string) error {
	row := &models.Shorter{Path: path, URL: target, TTL: ttl.FromSeconds(seconds), Token: token}
	return s.store.Do(ctx, func(db *gorm.DB) error {
		return s.insert(repository.NewShorterRepository(db), row)
	})
}

func (s *ShorterService) insert(repo repository.ShorterRepository, row *models.Shorter) error {
	if err := repo.UpsertShorter(row); err != nil {
		return customerrors.Storage("insert shorter", err)
	}
	s.cache.Invalidate(row.Path)
	return nil
}

// RemoveShorter deletes the mapping for path and reports whether it existed.
func (s *ShorterService) RemoveShorter(ctx context.Context, path string) (bool, error) {
	var existed bool
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		existed, err = repository.NewShorterRepository(db).DeleteShorter(path)
		if err != nil {
			return customerrors.Storage("remove shorter", err)
		}
		s.cache.Invalidate(path)
		return nil
	})
	return existed, err
}

// LocateShorter returns the stored mapping for path even when it has expired.
// It is used by the admin commands, which report expired rows instead of hiding them.
// Parameters:
//   - path: the short path to look up
//
// Returns:
//   - *models.Shorter: the stored row
//   - error: ErrNotFound when no row exists, or ErrStorageFailure
func (s *ShorterService) LocateShorter(ctx context.Context, path string) (*models.Shorter, error) {
	var found *models.Shorter
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		found, err = repository.NewShorterRepository(db).FindShorter(path)
		return customerrors.Storage("locate shorter", err)
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, customerrors.ErrNotFound
	}
	return found, nil
}

// GetShorter returns the live mapping for path. This is the method used
// during redirection.
// Parameters:
//   - path: the short path taken from the request
//
// Returns:
//   - *models.Shorter: the live mapping
//   - error: ErrNotFound for unknown and expired paths alike, or ErrStorageFailure
func (s *ShorterService) GetShorter(ctx context.Context, path string) (*models.Shorter, error) {
	// Fast path: a cached entry is only trusted while it has not expired
	if hit, ok := s.cache.Get(path); ok && !hit.TTL.Expired() {
		return &hit, nil
	}

	var found *models.Shorter
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		row, err := repository.NewShorterRepository(db).FindShorter(path)
		if err != nil {
			return customerrors.Storage("get shorter", err)
		}
		// An expired row is treated exactly like a missing one
		if row == nil || row.TTL.Expired() {
			s.cache.Invalidate(path)
			return nil
		}
		// Filled while locked so a concurrent insert cannot be overwritten
		// by this older row.
		s.cache.Set(*row)
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, customerrors.ErrNotFound
	}
	return found, nil
}

// CreateShorter checks a write request and stores the mapping it describes.
// The token check and the insert run under a single lock acquisition.
// Parameters:
//   - req: the caller's token, optional path, percent-encoded target and lifetime
//
// Returns:
//   - string: the path the mapping was stored under (generated when req.Path is empty)
//   - error: ErrUnauthorized, ErrInvalidInput, ErrPathGenerationFailed or ErrStorageFailure
func (s *ShorterService) CreateShorter(ctx context.Context, req CreateRequest) (string, error) {
	var path string
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		shorters := repository.NewShorterRepository(db)

		// Token before parameters: unknown callers always get ErrUnauthorized
		allowed, err := tokenAllowed(repository.NewTokenRepository(db), req.Token)
		if err != nil {
			return err
		}
		if !allowed {
			return customerrors.ErrUnauthorized
		}

		if err := ValidatePath(req.Path); err != nil {
			return err
		}
		target, err := DecodeTarget(req.URL)
		if err != nil {
			return err
		}

		path = req.Path
		if path == "" {
			// No path requested, pick a random one not held by a live mapping
			if path, err = s.freePath(shorters); err != nil {
				return err
			}
		}

		token := req.Token
		return s.insert(shorters, &models.Shorter{
			Path:  path,
			URL:   target,
			TTL:   ttl.FromSeconds(req.Seconds),
			Token: &token, // recorded for auditing, never read back
		})
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath rejects caller-supplied paths that could not be resolved back
// to the same mapping: paths spanning several segments and dot segments,
// which URL resolution collapses. The empty path is valid and means "generate".
func ValidatePath(path string) error {
	switch {
	case strings.Contains(path, "/"):
		return customerrors.ErrInvalidInput{Field: "path", Reason: "must not contain '/'"}
	case path == "." || path == "..":
		return customerrors.ErrInvalidInput{Field: "path", Reason: "must not be a dot segment"}
	}
	return nil
}

// freePath generates a random path that is not held by a live mapping.
func (s *ShorterService) freePath(repo repository.ShorterRepository) (string, error) {
	// Retry loop to handle path collisions
	for i := 0; i < maxPathRetries; i++ {
		path, err := GeneratePath(s.pathLength)
		if err != nil {
			return "", err
		}
		existing, err := repo.FindShorter(path)
		if err != nil {
			return "", customerrors.Storage("check generated path", err)
		}
		// Free, or held by an expired row the upsert will replace
		if existing == nil || existing.TTL.Expired() {
			return path, nil
		}
		// If we reach here the path belongs to a live mapping (collision)
		slog.Warn("generated path already in use, retrying", "path", path, "attempt", i+1, "max", maxPathRetries)
	}
	// Every attempt collided with a live mapping
	return "", customerrors.ErrPathGenerationFailed
}

// PurgeExpired deletes every expired mapping. It is called by the sweeper;
// readers never see expired rows, so purging only reclaims space.
// Returns:
//   - int64: the number of rows removed
//   - error: ErrStorageFailure when the delete fails
func (s *ShorterService) PurgeExpired(ctx context.Context) (int64, error) {
	var n int64
	err := s.store.Do(ctx, func(db *gorm.DB) error {
		var err error
		n, err = repository.NewShorterRepository(db).DeleteExpiredShorters(time.Now().UnixMicro())
		return customerrors.Storage("purge expired shorters", err)
	})
	return n, err
}

// DecodeTarget percent-decodes a caller-supplied target URL.
// Well-formed %XX escapes are decoded; a '%' not followed by two hex digits is
// kept as is, and '+' is never turned into a space.
// Parameters:
//   - raw: the target as received in the request
//
// Returns:
//   - string: the decoded target
//   - error: ErrInvalidInput when the result is empty or not valid UTF-8
func DecodeTarget(raw string) (string, error) {
	target := unescapeLenient(raw)
	if target == "" {
		return "", customerrors.ErrInvalidInput{Field: "url", Reason: "empty"}
	}
	if !utf8.ValidString(target) {
		// Decoded bytes would otherwise be sent back verbatim in Location
		return "", customerrors.ErrInvalidInput{Field: "url", Reason: "cannot decode: not valid UTF-8"}
	}
	return target, nil
}

// unescapeLenient decodes every %XX escape in s and copies anything else,
// including malformed escapes, unchanged.
func unescapeLenient(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
