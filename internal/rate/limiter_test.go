package rate

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 10, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 1, r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 0, r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.EqualValues(t, 3, r.CurrentHits)
	assert.Equal(t, 50*time.Second, r.RetryAfter)

	// otra clave no comparte ventana
	r, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	// ventana siguiente
	now = now.Add(time.Minute)
	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 1, r.CurrentHits)
}

func TestFixedWindowResult_FallbackRetryAfter(t *testing.T) {
	r := fixedWindowResult(5, 1, -1, 1500*time.Millisecond)
	assert.False(t, r.Allowed)
	assert.Equal(t, 2*time.Second, r.RetryAfter)
	assert.Zero(t, r.Remaining)
}

// Requiere REDIS_TEST_ADDR; si no está, se saltea.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	l := NewRedisLimiter(client, "rltest:", 1, time.Minute)
	require.NoError(t, l.Ping(ctx))

	key := "k-" + time.Now().Format("150405.000000000")
	r, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	r, err = l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Greater(t, r.RetryAfter, time.Duration(0))
}
