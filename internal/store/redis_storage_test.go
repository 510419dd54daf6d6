package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	UserID    uint   `redis:"user_id"`
	Role      string `redis:"role"`
	ExpiresAt int64  `redis:"expires_at"`
}

func newTestStorage(t *testing.T) (*miniredis.Miniredis, *RedisStorage) {
	mr := miniredis.RunT(t)
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisStorage(rdb)
}

func TestRedisStorageRoundTrip(t *testing.T) {
	mr, storage := newTestStorage(t)
	sessions := New[testSession](storage, "rt:")
	ctx := context.Background()

	want := testSession{UserID: 42, Role: "admin", ExpiresAt: 1700000000000}
	require.NoError(t, sessions.Set(ctx, "abc", want, time.Minute))

	assert.True(t, mr.Exists("rt:abc"))
	assert.Equal(t, time.Minute, mr.TTL("rt:abc"))

	got, err := sessions.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStorageMissingKey(t *testing.T) {
	_, storage := newTestStorage(t)
	sessions := New[testSession](storage, "rt:")

	_, err := sessions.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, sessions.Delete(context.Background(), "missing"), ErrNotFound)
}

func TestRedisStorageExpiry(t *testing.T) {
	mr, storage := newTestStorage(t)
	sessions := New[testSession](storage, "rt:")
	ctx := context.Background()

	require.NoError(t, sessions.Set(ctx, "abc", testSession{UserID: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := sessions.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorageDelete(t *testing.T) {
	mr, storage := newTestStorage(t)
	sessions := New[testSession](storage, "rt:")
	ctx := context.Background()

	require.NoError(t, sessions.Set(ctx, "abc", testSession{UserID: 1}, -1))
	assert.Equal(t, time.Duration(0), mr.TTL("rt:abc"))
	require.NoError(t, sessions.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("rt:abc"))
}

func TestRedisStorageTake(t *testing.T) {
	mr, storage := newTestStorage(t)
	sessions := New[testSession](storage, "rt:")
	ctx := context.Background()

	want := testSession{UserID: 7, Role: "alumni"}
	require.NoError(t, sessions.Set(ctx, "abc", want, time.Hour))

	got, err := sessions.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, mr.Exists("rt:abc"))

	_, err = sessions.Take(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
