package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/speriment/pkg/adapters/redis"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunArtifactStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "shortLived", []byte(`{"blocks": []}`)))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "shortLived")

	// FastForward expires the key; the index is pruned against the wall clock.
	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, "shortLived")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)

	time.Sleep(2100 * time.Millisecond)
	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("lab:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "stroop", []byte(`{}`)))

	assert.True(t, mr.Exists("lab:stroop"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("lab:#index"), "Expected index with custom prefix to exist")

	got, err := mr.Get("lab:stroop")
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}

func TestRedisStore_ArtifactNamedIndex(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "index", []byte(`{"n": 1}`)))
	require.NoError(t, store.Save(ctx, "other", []byte(`{"n": 2}`)))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index", "other"}, names)
}
