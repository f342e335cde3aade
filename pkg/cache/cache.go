// Package cache 在键值存储之上提供带命名空间的泛型编解码.
//
// 所有键自动加上命名空间前缀，值使用 sonic 序列化为 JSON. 描述符索引即建立在它之上：
//
//	c := cache.NewCache(kvStore, "paste.v1.")
//	err := cache.Set(ctx, c, "Ab12", descriptor, ttl)
//	d, err := cache.Get[model.PasteDescriptor](ctx, c, "Ab12")
//
// 未命中时返回底层存储的错误，可用 errors.Is(err, kv.ErrKeyNotFound) 判断.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/pastevault/pkg/internal/storage/kv"
)

// Cache 基于KV存储的命名空间.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
}

// NewCache 创建一个新的命名空间，prefix 可以为空.
func NewCache(kvStore kv.KVStore, prefix string) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  prefix,
	}
}

// Key 返回带前缀的完整键.
func (c *Cache) Key(name string) string {
	return c.prefix + name
}

// Prefix 命名空间前缀.
func (c *Cache) Prefix() string {
	return c.prefix
}

// Get 泛型获取值.
func Get[T any](ctx context.Context, c *Cache, name string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, c.Key(name))
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value %s: %w", name, err)
	}

	return value, nil
}

// Set 泛型设置值，ttl<=0 表示不过期.
func Set[T any](ctx context.Context, c *Cache, name string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value %s: %w", name, err)
	}

	return c.kvStore.Set(ctx, c.Key(name), data, ttl)
}

// Delete 删除键.
func (c *Cache) Delete(ctx context.Context, name string) error {
	return c.kvStore.Delete(ctx, c.Key(name))
}

// Exists 检查键是否存在.
func (c *Cache) Exists(ctx context.Context, name string) (bool, error) {
	return c.kvStore.Exists(ctx, c.Key(name))
}

// Names 列出命名空间内的键，返回值不含前缀.
func (c *Cache) Names(ctx context.Context) ([]string, error) {
	keys, err := c.kvStore.Keys(ctx, c.prefix+"*")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))

	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, c.prefix); ok {
			names = append(names, name)
		}
	}

	return names, nil
}

// Clear 删除命名空间内的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	names, err := c.Names(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if delErr := c.Delete(ctx, name); delErr != nil {
			return delErr
		}
	}

	return nil
}
