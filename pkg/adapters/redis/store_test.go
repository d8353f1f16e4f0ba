package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/scriptbridge/pkg/adapters/redis"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func put(t *testing.T, store *redis.Store, e *domain.Entity) domain.UpdateResult {
	t.Helper()
	res, err := store.Update(context.Background(), domain.UpdateRequest{Entity: e, Op: domain.OpPut})
	require.NoError(t, err)
	return res
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunEntityStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	e := domain.NewEntity("d:one")
	e.Add("v-s:n", domain.Integer(1))

	res := put(t, store, e)
	assert.Equal(t, domain.Ok, res.Status)
	assert.Equal(t, int64(1), res.OpID)

	assert.True(t, mr.Exists("custom:app:indv:d:one"), "Expected entity key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	res = put(t, store, e)
	assert.Equal(t, int64(2), res.OpID)
}

func TestRedisStore_TTLExpiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()
	put(t, store, domain.NewEntity("d:short"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "d:short")

	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, "d:short")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisStore_TransportError(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	_, err := store.Get(context.Background(), "d:any")
	assert.ErrorIs(t, err, domain.ErrTransport)

	_, err = store.Update(context.Background(), domain.UpdateRequest{Entity: domain.NewEntity("d:any"), Op: domain.OpPut})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, domain.TransportError, domain.CodeOf(err))
}

func TestRedisAuthorizer(t *testing.T) {
	_, client := newClient(t)
	az := redis.NewAuthorizer(client, redis.DefaultPrefix)
	ctx := context.Background()

	require.NoError(t, az.Grant(ctx, "d:doc", "u:ann", domain.CanRead))
	require.NoError(t, az.Grant(ctx, "d:doc", "u:ann", domain.CanUpdate))
	require.NoError(t, az.Grant(ctx, "d:doc", redis.AnySubject, domain.CanCreate))

	rights, err := az.Authorize(ctx, "d:doc", "u:ann", domain.FullAccess, false)
	require.NoError(t, err)
	assert.Equal(t, domain.CanRead|domain.CanUpdate|domain.CanCreate, rights)

	rights, err = az.Authorize(ctx, "d:doc", "u:ann", domain.CanRead, false)
	require.NoError(t, err)
	assert.Equal(t, domain.CanRead, rights)

	rights, err = az.Authorize(ctx, "d:none", "u:ann", domain.FullAccess, false)
	require.NoError(t, err)
	assert.Equal(t, domain.Access(0), rights)
}
