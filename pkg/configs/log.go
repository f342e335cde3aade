package configs

import (
	"github.com/spf13/viper"
)

// 终端日志格式.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = LogFormatConsole
	DefaultLogEnableFile = false
	DefaultLogFilePath   = "logs/pastevault.log"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 7
	DefaultLogMaxAge     = 28 // 天
	DefaultLogCompress   = true
)

// LogConfig 日志配置. 文件输出始终为 JSON.
type LogConfig struct {
	Level      string `mapstructure:"level"        rule:"oneof=trace debug info warn error fatal panic"`
	Format     string `mapstructure:"format"       rule:"oneof=console json"`
	EnableFile bool   `mapstructure:"enable_file"`
	FilePath   string `mapstructure:"file_path"    rule:"required_if=EnableFile true"`
	MaxSize    int    `mapstructure:"max_size_mb"  rule:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups"  rule:"gte=0"`
	MaxAge     int    `mapstructure:"max_age_days" rule:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

func (l *LogConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.enable_file", DefaultLogEnableFile)
	v.SetDefault("log.file_path", DefaultLogFilePath)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAge)
	v.SetDefault("log.compress", DefaultLogCompress)
}
