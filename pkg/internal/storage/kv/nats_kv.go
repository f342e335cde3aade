package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/pastevault/pkg/configs"
)

// NATSKV JetStream KV 桶. 桶本身只有统一的 MaxAge，单个键的过期时间写在值的包装头里，读取时判断.
type NATSKV struct {
	kv   nats.KeyValue
	conn *nats.Conn
}

// NewNATSKV 绑定已有的桶，不存在时按配置创建.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, fmt.Errorf("nats kv: unexpected config %T", config)
	}

	opts := []nats.Option{nats.Name("pastevault-kv"), nats.MaxReconnects(-1)}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats kv: connect %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats kv: jetstream: %w", err)
	}

	bucket, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(bucketConfig(cfg))
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats kv: bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSKV{kv: bucket, conn: nc}, nil
}

func bucketConfig(cfg *configs.NATSKVConfig) *nats.KeyValueConfig {
	kvc := &nats.KeyValueConfig{
		Bucket:       cfg.Bucket,
		Description:  "pastevault descriptors",
		History:      cfg.History,
		TTL:          cfg.MaxAge,
		MaxValueSize: cfg.MaxValue,
		Replicas:     cfg.Replicas,
	}
	if kvc.History == 0 {
		kvc.History = 1
	}

	if kvc.Replicas == 0 {
		kvc.Replicas = 1
	}

	return kvc
}

// load 过期的键在这里顺带删除.
func (n *NATSKV) load(key string, now time.Time) ([]byte, error) {
	entry, err := n.kv.Get(key)
	switch {
	case errors.Is(err, nats.ErrKeyNotFound):
		return nil, notFound(key)
	case err != nil:
		return nil, fmt.Errorf("nats kv: get %s: %w", key, err)
	}

	val, expired, err := decodeWithTTL(entry.Value(), now)
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(key)
		return nil, notFound(key)
	}

	return val, nil
}

func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	return n.load(key, time.Now())
}

func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, time.Now())
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(key, encoded); err != nil {
		return fmt.Errorf("nats kv: put %s: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv: delete %s: %w", key, err)
	}

	return nil
}

func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := n.load(key, time.Now())
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 桶内键数量有限，列出后在本地做 glob 匹配并过滤已过期的键.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	all, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv: keys: %w", err)
	}

	now := time.Now()
	out := make([]string, 0, len(all))

	for _, key := range all {
		if !matchKey(pattern, key) {
			continue
		}

		if _, err := n.load(key, now); err == nil {
			out = append(out, key)
		}
	}

	return out, nil
}

// Close 先 Drain 让未确认的写入完成.
func (n *NATSKV) Close() error {
	return n.conn.Drain()
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
