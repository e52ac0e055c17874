package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/linkshorter/internal/services"
	"github.com/axellelanca/linkshorter/internal/store"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, p.err
}

func runFor(t *testing.T, s *Sweeper, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d + time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

func TestRun_Disabled(t *testing.T) {
	p := &countingPurger{}
	done := make(chan struct{})
	go func() {
		New(p, 0).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
	assert.Zero(t, p.calls.Load())
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	p := &countingPurger{}
	runFor(t, New(p, 20*time.Millisecond), 150*time.Millisecond)
	assert.GreaterOrEqual(t, p.calls.Load(), int32(3))
}

func TestRun_KeepsGoingAfterErrors(t *testing.T) {
	p := &countingPurger{err: errors.New("disk full")}
	runFor(t, New(p, 20*time.Millisecond), 100*time.Millisecond)
	assert.GreaterOrEqual(t, p.calls.Load(), int32(2))
}

func TestRun_PurgesExpiredShorters(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	svc := services.NewShorterService(st, nil, 0)
	past, future := int64(-10), int64(3600)
	require.NoError(t, svc.InsertShorter(ctx, "old", "https://old.example", &past, nil))
	require.NoError(t, svc.InsertShorter(ctx, "new", "https://new.example", &future, nil))

	runFor(t, New(svc, time.Hour), 50*time.Millisecond)

	_, err = svc.LocateShorter(ctx, "old")
	assert.Error(t, err, "expired row should be gone")
	got, err := svc.LocateShorter(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example", got.URL)
}
