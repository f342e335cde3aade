package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 描述符索引使用的键值存储.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"oneof=memory redis nats groupcache sql"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
	SQL        SQLKVConfig        `mapstructure:"sql"`
}

// SQLKVConfig 数据库表形式的 KV，连接参数复用 db 配置段.
type SQLKVConfig struct {
	Table         string `mapstructure:"table"          rule:"required,alphanum"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`
	PurgeInterval int    `mapstructure:"purge_interval" rule:"min=0"` // 秒，0 表示只在读取时惰性删除
}

// RedisKVConfig 使用 Redis 原生 TTL.
type RedisKVConfig struct {
	Addr         string        `mapstructure:"addr"          rule:"hostname_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"      json:"-"`
	DB           int           `mapstructure:"db"            rule:"min=0,max=15"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PoolSize     int           `mapstructure:"pool_size"     rule:"min=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TLS          bool          `mapstructure:"tls"`
}

// NATSKVConfig JetStream KV 桶.
type NATSKVConfig struct {
	URL      string        `mapstructure:"url"      rule:"required"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password" json:"-"`
	Bucket   string        `mapstructure:"bucket"   rule:"required"`
	Replicas int           `mapstructure:"replicas" rule:"min=0,max=5"`
	History  uint8         `mapstructure:"history"  rule:"min=0,max=64"`
	MaxValue int32         `mapstructure:"max_value"`
	MaxAge   time.Duration `mapstructure:"max_age"` // 桶级上限，单个键的 TTL 仍由值包装决定
}

// GroupcacheKVConfig groupcache 只缓存读取结果，权威数据保存在本进程内存.
type GroupcacheKVConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"`
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"        rule:"omitempty,url"`
}

// GetKVType 当前配置的 KV 类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.key_prefix", "pastevault:")
	v.SetDefault("kv.redis.pool_size", 0)
	v.SetDefault("kv.redis.dial_timeout", 5*time.Second)
	v.SetDefault("kv.redis.read_timeout", 3*time.Second)
	v.SetDefault("kv.redis.write_timeout", 3*time.Second)

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "pastevault-kv")
	v.SetDefault("kv.nats.replicas", 1)
	v.SetDefault("kv.nats.history", 1)
	v.SetDefault("kv.nats.max_value", -1)

	v.SetDefault("kv.groupcache.name", "pastevault-cache")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
	v.SetDefault("kv.groupcache.peers", []string{})
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")

	v.SetDefault("kv.sql.table", "pastekv")
	v.SetDefault("kv.sql.auto_migrate", true)
	v.SetDefault("kv.sql.purge_interval", 0)
}
