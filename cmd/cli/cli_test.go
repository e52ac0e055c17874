package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/linkshorter/internal/services"
	"github.com/axellelanca/linkshorter/internal/store"
	"github.com/axellelanca/linkshorter/internal/ttl"
)

func newTestServices(t *testing.T) (*store.Store, *serviceSet) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, &serviceSet{
		tokens:   services.NewTokenService(st),
		shorters: services.NewShorterService(st, nil, services.DefaultPathLength),
	}
}

func ptr(n int64) *int64 { return &n }

func TestTokenCommands(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestServices(t)
	var out bytes.Buffer

	require.NoError(t, runAddToken(ctx, &out, svc.tokens, "forever", nil))
	require.NoError(t, runAddToken(ctx, &out, svc.tokens, "stale", ptr(-5)))
	require.NoError(t, runAddToken(ctx, &out, svc.tokens, "hour", ptr(3600)))
	assert.Equal(t, "Token added\nToken added\nToken added\n", out.String())

	out.Reset()
	require.NoError(t, runListTokens(ctx, &out, svc.tokens))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^Token\s+TTL$`, lines[0])
	assert.Regexp(t, `^forever\s+-$`, lines[1])
	assert.Regexp(t, `^stale\s+\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{6} UTC \(expired\)$`, lines[2])
	assert.Regexp(t, `^hour\s+\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{6} UTC$`, lines[3])

	out.Reset()
	require.NoError(t, runRemoveToken(ctx, &out, svc.tokens, "stale"))
	require.NoError(t, runRemoveToken(ctx, &out, svc.tokens, "stale"))
	assert.Equal(t, "Token removed\nNo such token\n", out.String())

	assert.Error(t, runAddToken(ctx, &out, svc.tokens, "", nil))
}

func TestListTokens_CorruptExpiry(t *testing.T) {
	ctx := context.Background()
	st, svc := newTestServices(t)
	require.NoError(t, st.Do(ctx, func(db *gorm.DB) error {
		return db.Exec(`INSERT INTO tokens (token, ttl) VALUES (?, ?)`, "weird", "not-a-number").Error
	}))

	var out bytes.Buffer
	require.NoError(t, runListTokens(ctx, &out, svc.tokens))
	assert.Regexp(t, `(?m)^weird\s+invalid \(expired\)$`, out.String())
}

func TestShorterCommands(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestServices(t)
	var out bytes.Buffer

	require.NoError(t, runAddShorter(ctx, &out, svc.shorters, "docs", "https://example.com/docs?a=%20b", nil))
	assert.Equal(t, "Shorter added: /docs -> https://example.com/docs?a=%20b\n", out.String())

	out.Reset()
	require.NoError(t, runGetShorter(ctx, &out, svc.shorters, "docs"))
	assert.Equal(t, "Path: docs\nURL: https://example.com/docs?a=%20b\nTTL: -\nState: active\n", out.String())

	out.Reset()
	require.NoError(t, runAddShorter(ctx, &out, svc.shorters, "old", "https://old.example", ptr(-1)))
	out.Reset()
	require.NoError(t, runGetShorter(ctx, &out, svc.shorters, "old"))
	assert.Contains(t, out.String(), "(expired)")
	assert.Contains(t, out.String(), "State: expired\n")

	out.Reset()
	require.NoError(t, runRemoveShorter(ctx, &out, svc.shorters, "docs"))
	require.NoError(t, runRemoveShorter(ctx, &out, svc.shorters, "docs"))
	require.NoError(t, runGetShorter(ctx, &out, svc.shorters, "docs"))
	assert.Equal(t, "Shorter removed\nNo such shorter\nNo such shorter\n", out.String())
}

func TestAddShorter_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, svc := newTestServices(t)
	var out bytes.Buffer

	assert.Error(t, runAddShorter(ctx, &out, svc.shorters, "", "https://x", nil))
	assert.Error(t, runAddShorter(ctx, &out, svc.shorters, "a/b", "https://x", nil))
	assert.Error(t, runAddShorter(ctx, &out, svc.shorters, "a", "", nil))
	assert.Empty(t, out.String())
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "-", formatExpiry(ttl.Never()))
	assert.Equal(t, "invalid (expired)", formatExpiry(ttl.At(-1<<63)))
	assert.Equal(t, "1970-01-01 00:00:01.000000 UTC (expired)", formatExpiry(ttl.At(1_000_000)))
}
