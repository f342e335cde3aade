package kv

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestSQLKV(t *testing.T) *SQLKV {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s, err := NewSQLKVFromDB(context.Background(), gdb, "pastekv", true)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return s
}

func TestSQLKVBasic(t *testing.T) {
	s := newTestSQLKV(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "paste.v1.none")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "paste.v1.Ab12", []byte("one"), 0))
	require.NoError(t, s.Set(ctx, "paste.v1.Ab12", []byte("two"), 0))
	require.NoError(t, s.Set(ctx, "paste.v1.Cd34", []byte("x"), time.Hour))
	require.NoError(t, s.Set(ctx, "meta.version", []byte("1"), 0))

	v, err := s.Get(ctx, "paste.v1.Ab12")
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))

	keys, err := s.Keys(ctx, "paste.v1.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"paste.v1.Ab12", "paste.v1.Cd34"}, keys)

	ok, err := s.Exists(ctx, "meta.version")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "meta.version"))

	ok, err = s.Exists(ctx, "meta.version")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLKVExpiry(t *testing.T) {
	s := newTestSQLKV(t)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "long", []byte("v"), 0))

	now = now.Add(2 * time.Minute)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "short2", []byte("v"), time.Second))
	now = now.Add(time.Hour)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"long"}, keys)
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "paste.v1.", literalPrefix("paste.v1.*"))
	assert.Equal(t, "", literalPrefix("*"))
	assert.Equal(t, "abc", literalPrefix("abc"))
	assert.Equal(t, "a", literalPrefix("a?c"))
}
