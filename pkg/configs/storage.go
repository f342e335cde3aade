package configs

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

const (
	// LocationDefault 普通粘贴与链接使用的存储位置.
	LocationDefault = "default"
	// LocationLarge 大文件粘贴使用的存储位置.
	LocationLarge = "large"

	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "pastevault"     // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
	DefaultMaxFileSize       = 25 << 20         // 默认位置单文件上限 25MiB
)

// StorageConfig 对象存储位置集合，键为位置名称（default、large 或自定义）.
type StorageConfig struct {
	Locations map[string]LocationConfig `mapstructure:"locations" rule:"dive"`
}

// LocationConfig 单个 S3 兼容存储位置.
// UploadEndpoint / DownloadEndpoint 为空时回退到 Endpoint，用于预签名 URL 对外暴露不同域名.
type LocationConfig struct {
	Endpoint         string        `mapstructure:"endpoint"          json:"endpoint"          rule:"required"`
	UploadEndpoint   string        `mapstructure:"upload_endpoint"   json:"upload_endpoint"`
	DownloadEndpoint string        `mapstructure:"download_endpoint" json:"download_endpoint"`
	Region           string        `mapstructure:"region"            json:"region"`
	Bucket           string        `mapstructure:"bucket"            json:"bucket"            rule:"required"`
	AccessKeyID      string        `mapstructure:"access_key_id"     json:"-"`
	SecretAccessKey  string        `mapstructure:"secret_access_key" json:"-"`
	UseSSL           bool          `mapstructure:"use_ssl"           json:"use_ssl"`
	MaxFileSize      int64         `mapstructure:"max_file_size"     json:"max_file_size"     rule:"min=0"`
	MaxTTL           time.Duration `mapstructure:"max_ttl"           json:"max_ttl"           rule:"min=0"`
	CreateBucket     bool          `mapstructure:"create_bucket"     json:"create_bucket"`
}

// Location 按名称查找位置配置，空名称视为 default.
func (c *StorageConfig) Location(name string) (LocationConfig, bool) {
	if name == "" {
		name = LocationDefault
	}

	loc, ok := c.Locations[name]

	return loc, ok
}

// Names 返回排序后的位置名称.
func (c *StorageConfig) Names() []string {
	names := make([]string, 0, len(c.Locations))
	for name := range c.Locations {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// GetEndpointURL 获取完整的端点URL.
func (l *LocationConfig) GetEndpointURL() string {
	scheme := "http"
	if l.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, l.Endpoint)
}

// validate 要求至少存在 default 位置.
func (c *StorageConfig) validate() error {
	if _, ok := c.Locations[LocationDefault]; !ok {
		return fmt.Errorf("invalid config: storage.locations.%s is required", LocationDefault)
	}

	return nil
}

// setDefaults 设置存储位置的默认值，仅提供 default 位置；large 需要显式配置.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.locations", map[string]any{
		LocationDefault: map[string]any{
			"endpoint":          DefaultS3Endpoint,
			"region":            DefaultS3Region,
			"bucket":            DefaultS3BucketName,
			"access_key_id":     DefaultS3AccessKeyID,
			"secret_access_key": DefaultS3SecretAccessKey,
			"use_ssl":           DefaultS3UseSSL,
			"max_file_size":     DefaultMaxFileSize,
			"max_ttl":           "0s",
			"create_bucket":     true,
		},
	})
}
