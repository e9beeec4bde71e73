package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreCodeLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t)
	id := Identifier{Kind: KindEmail, Value: "ama@example.com"}

	require.NoError(t, store.SaveCode(ctx, id, "hash", 5*time.Minute))

	n, err := store.IncrementAttempts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 5*time.Minute, mr.TTL(codeKey(id)))

	rec, err := store.GetCode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &CodeRecord{Hash: "hash", Attempts: 1}, rec)

	require.NoError(t, store.DeleteCode(ctx, id))
	rec, err = store.GetCode(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisStoreIncrementDoesNotRecreateExpiredCode(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t)
	id := Identifier{Kind: KindPhone, Value: "+233241234567"}

	require.NoError(t, store.SaveCode(ctx, id, "hash", time.Minute))
	mr.FastForward(2 * time.Minute)

	n, err := store.IncrementAttempts(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, mr.Exists(codeKey(id)))
}

func TestRedisStoreCooldown(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisTestStore(t)
	id := Identifier{Kind: KindEmail, Value: "ama@example.com"}

	ok, err := store.AcquireCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.AcquireCooldown(ctx, id, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreIncrementOnExpiredCode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	id := Identifier{Kind: KindEmail, Value: "ama@example.com"}

	require.NoError(t, store.SaveCode(ctx, id, "hash", time.Minute))
	now = now.Add(2 * time.Minute)

	n, err := store.IncrementAttempts(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}
