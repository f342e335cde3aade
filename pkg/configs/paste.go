package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultIDLength            = 4
	DefaultIDAlphabet          = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	DefaultRetention           = 28 * 24 * time.Hour // 默认保留 28 天
	DefaultPendingTTL          = 4 * time.Hour       // 大文件上传握手窗口
	DefaultPresignExpiry       = time.Hour
	DefaultPresignMargin       = 10 * time.Minute
	DefaultLargeProxyThreshold = 100 << 20 // 100MiB 以上改为预签名重定向
	DefaultInlineMaxSize       = 25 << 20
	DefaultPasswordMaxLength   = 64
	DefaultAsyncConcurrency    = 64
	DefaultAsyncTimeout        = 10 * time.Second
	DefaultKeyPrefix           = "paste.v1."

	// PasswordSchemeSHA256 sha256 截断 16 位十六进制，兼容既有存储.
	PasswordSchemeSHA256 = "sha256-16"
	// PasswordSchemeBcrypt bcrypt 加盐哈希.
	PasswordSchemeBcrypt = "bcrypt"
)

// PasteConfig 粘贴生命周期参数，由引擎构造时按值传入.
type PasteConfig struct {
	IDLength            int           `mapstructure:"id_length"             rule:"min=1,max=64"`
	IDAlphabet          string        `mapstructure:"id_alphabet"           rule:"required,alphanum"`
	Retention           time.Duration `mapstructure:"retention"             rule:"gt=0"`
	PendingTTL          time.Duration `mapstructure:"pending_ttl"           rule:"gt=0"`
	PresignExpiry       time.Duration `mapstructure:"presign_expiry"        rule:"gt=0"`
	PresignMargin       time.Duration `mapstructure:"presign_margin"        rule:"min=0,ltfield=PresignExpiry"`
	LargeProxyThreshold int64         `mapstructure:"large_proxy_threshold" rule:"min=0"`
	InlineMaxSize       int64         `mapstructure:"inline_max_size"       rule:"gt=0"`
	PasswordMaxLength   int           `mapstructure:"password_max_length"   rule:"min=1"`
	PasswordScheme      string        `mapstructure:"password_scheme"       rule:"oneof=sha256-16 bcrypt"`
	KeyPrefix           string        `mapstructure:"key_prefix"            rule:"required"`
	AsyncWrites         bool          `mapstructure:"async_writes"`
	AsyncConcurrency    int           `mapstructure:"async_concurrency"     rule:"min=1"`
	AsyncTimeout        time.Duration `mapstructure:"async_timeout"         rule:"gt=0"`
	// PublicBaseURL 生成分享链接与二维码使用，为空时按请求 Host 推断.
	PublicBaseURL string `mapstructure:"public_base_url" rule:"omitempty,url"`
}

func (c *PasteConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("paste.id_length", DefaultIDLength)
	v.SetDefault("paste.id_alphabet", DefaultIDAlphabet)
	v.SetDefault("paste.retention", DefaultRetention)
	v.SetDefault("paste.pending_ttl", DefaultPendingTTL)
	v.SetDefault("paste.presign_expiry", DefaultPresignExpiry)
	v.SetDefault("paste.presign_margin", DefaultPresignMargin)
	v.SetDefault("paste.large_proxy_threshold", DefaultLargeProxyThreshold)
	v.SetDefault("paste.inline_max_size", DefaultInlineMaxSize)
	v.SetDefault("paste.password_max_length", DefaultPasswordMaxLength)
	v.SetDefault("paste.password_scheme", PasswordSchemeSHA256)
	v.SetDefault("paste.key_prefix", DefaultKeyPrefix)
	v.SetDefault("paste.async_writes", true)
	v.SetDefault("paste.async_concurrency", DefaultAsyncConcurrency)
	v.SetDefault("paste.async_timeout", DefaultAsyncTimeout)
	v.SetDefault("paste.public_base_url", "")
}
