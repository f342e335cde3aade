package configs

import "github.com/spf13/viper"

// AdminConfig 管理接口（调度器、存储位置）的访问控制.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"   json:"-" rule:"required_if=Enabled true"` // 通过 X-Admin-Token 请求头校验
}

func (c *AdminConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.token", "")
}
