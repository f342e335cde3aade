package kv_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
)

// exerciseStore 各实现共用的行为检查.
func exerciseStore(t *testing.T, store kv.KVStore) {
	t.Helper()

	ctx := context.Background()

	_, err := store.Get(ctx, "paste.v1.none")
	assert.True(t, errors.Is(err, kv.ErrKeyNotFound))

	require.NoError(t, store.Set(ctx, "paste.v1.Ab12", []byte("one"), 0))
	require.NoError(t, store.Set(ctx, "paste.v1.Zz99", []byte("two"), time.Hour))
	require.NoError(t, store.Set(ctx, "other.x", []byte("three"), 0))

	v, err := store.Get(ctx, "paste.v1.Zz99")
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))

	ok, err := store.Exists(ctx, "paste.v1.Ab12")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := store.Keys(ctx, "paste.v1.*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"paste.v1.Ab12", "paste.v1.Zz99"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Set(ctx, "paste.v1.Ab12", []byte("uno"), 0))
	v, err = store.Get(ctx, "paste.v1.Ab12")
	require.NoError(t, err)
	assert.Equal(t, "uno", string(v))

	require.NoError(t, store.Delete(ctx, "paste.v1.Ab12"))
	require.NoError(t, store.Delete(ctx, "paste.v1.Ab12"))

	ok, err = store.Exists(ctx, "paste.v1.Ab12")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestMemoryKVExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kv.NewMemoryKVWithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(59 * time.Second)
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryKVExpiredEntryIsRemoved(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kv.NewMemoryKVWithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "paste.v1.Ab12", []byte("v"), time.Minute))
	now = now.Add(time.Hour)

	for range 3 {
		require.NotPanics(t, func() {
			ok, err := store.Exists(ctx, "paste.v1.Ab12")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	require.NoError(t, store.Set(ctx, "paste.v1.Ab12", []byte("again"), time.Minute))

	v, err := store.Get(ctx, "paste.v1.Ab12")
	require.NoError(t, err)
	assert.Equal(t, "again", string(v))
}

func TestMemoryKVReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryKVWithClock(time.Now)

	in := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", in, 0))
	in[0] = 'x'

	out, err := store.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestGroupcacheKV(t *testing.T) {
	cfg := &configs.GroupcacheKVConfig{Name: "test-groupcache-basic", CacheBytes: 1 << 20}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	require.NoError(t, err)

	exerciseStore(t, store)

	_, err = kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
	assert.Error(t, err, "duplicate group name")
}

func TestGroupcacheKVSeesOverwritesAndTTL(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.GroupcacheKVConfig{Name: "test-groupcache-ttl", CacheBytes: 1 << 20}

	store, err := kv.NewKVStore(ctx, kv.KVTypeGroupcache, cfg)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "k", []byte("a"), 0))
	_, err = store.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "k", []byte("b"), 50*time.Millisecond))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))

	time.Sleep(80 * time.Millisecond)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)
}

func TestRegisteredTypes(t *testing.T) {
	types := kv.GetRegisteredKVTypes()
	assert.Contains(t, types, kv.KVTypeMemory)
	assert.Contains(t, types, kv.KVTypeGroupcache)
	assert.Contains(t, types, kv.KVTypeSQL)

	_, err := kv.NewKVStore(context.Background(), kv.KVType("etcd"), nil)
	assert.Error(t, err)
}
