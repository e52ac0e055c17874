package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/axellelanca/linkshorter/internal/models"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Shorter{}, &models.Token{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestTokenRepository_UpsertReplacesExpiry(t *testing.T) {
	repo := NewTokenRepository(openTestDB(t))

	require.NoError(t, repo.UpsertToken("abc", ttl.At(42)))
	require.NoError(t, repo.UpsertToken("abc", ttl.Never()))

	tokens, err := repo.ListTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "abc", tokens[0].Token)
	assert.False(t, tokens[0].TTL.Valid)
}

func TestTokenRepository_FindAndDelete(t *testing.T) {
	repo := NewTokenRepository(openTestDB(t))

	got, err := repo.FindToken("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.UpsertToken("abc", ttl.At(1700000000000000)))
	got, err = repo.FindToken("abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ttl.At(1700000000000000), got.TTL)

	got, err = repo.FindToken("ABC")
	require.NoError(t, err)
	assert.Nil(t, got, "lookups are exact-match")

	existed, err := repo.DeleteToken("abc")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.DeleteToken("abc")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestTokenRepository_ListOrdersByInsertion(t *testing.T) {
	repo := NewTokenRepository(openTestDB(t))
	for _, tok := range []string{"c", "a", "b"} {
		require.NoError(t, repo.UpsertToken(tok, ttl.Never()))
	}

	tokens, err := repo.ListTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{tokens[0].Token, tokens[1].Token, tokens[2].Token})
}

func TestShorterRepository_UpsertReplacesRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewShorterRepository(db)

	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "p", URL: "http://old.example", TTL: ttl.At(1), Token: strPtr("t1")}))
	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "p", URL: "http://new.example"}))

	var count int64
	require.NoError(t, db.Model(&models.Shorter{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := repo.FindShorter("p")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "http://new.example", got.URL)
	assert.False(t, got.TTL.Valid)
	assert.Nil(t, got.Token)
}

func TestShorterRepository_FindReturnsExpiredRows(t *testing.T) {
	repo := NewShorterRepository(openTestDB(t))
	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "gone", URL: "http://example.com", TTL: ttl.After(-10)}))

	got, err := repo.FindShorter("gone")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TTL.Expired())
}

func TestShorterRepository_CorruptTTLDoesNotFailScan(t *testing.T) {
	db := openTestDB(t)
	repo := NewShorterRepository(db)
	require.NoError(t, db.Exec(`INSERT INTO shorters (path, url, ttl) VALUES ('bad', 'http://example.com', 'garbage')`).Error)

	got, err := repo.FindShorter("bad")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TTL.Expired())
}

func TestTokenRepository_CorruptTTLReadsAsExpired(t *testing.T) {
	db := openTestDB(t)
	repo := NewTokenRepository(db)
	require.NoError(t, db.Exec(`INSERT INTO tokens (token, ttl) VALUES ('weird', 'garbage')`).Error)

	got, err := repo.FindToken("weird")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TTL.Expired())

	tokens, err := repo.ListTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].TTL.Expired())
}

func TestShorterRepository_DeleteExpired(t *testing.T) {
	db := openTestDB(t)
	repo := NewShorterRepository(db)

	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "old", URL: "http://a", TTL: ttl.After(-60)}))
	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "live", URL: "http://b", TTL: ttl.After(3600)}))
	require.NoError(t, repo.UpsertShorter(&models.Shorter{Path: "forever", URL: "http://c"}))
	require.NoError(t, db.Exec(`INSERT INTO shorters (path, url, ttl) VALUES ('bad', 'http://d', 'garbage')`).Error)

	n, err := repo.DeleteExpiredShorters(time.Now().UnixMicro())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for _, path := range []string{"live", "forever", "bad"} {
		got, err := repo.FindShorter(path)
		require.NoError(t, err)
		assert.NotNil(t, got, path)
	}
	got, err := repo.FindShorter("old")
	require.NoError(t, err)
	assert.Nil(t, got)
}
