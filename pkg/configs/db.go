package configs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBType 数据库类型，接受常见别名.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgres"
	Pg         DBType = "pg"
	MySQL      DBType = "mysql"
	MariaDB    DBType = "mariadb"
	SQLite     DBType = "sqlite"
)

// DBConfig sql 类型描述符存储使用的数据库.
type DBConfig struct {
	Type     DBType `mapstructure:"type"     rule:"oneof=postgresql postgres pg mysql mariadb sqlite"`
	Host     string `mapstructure:"host"     rule:"required_unless=Type sqlite"`
	Port     int    `mapstructure:"port"     rule:"min=0,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password" json:"-"`
	// Database sqlite 下为文件路径，:memory: 表示内存库
	Database string `mapstructure:"database" rule:"required"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"    rule:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    rule:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// SlowThreshold 超过该耗时的语句记为 warn，0 不记录
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
}

// Dialect 归一化后的方言：postgres、mysql 或 sqlite.
func (c *DBConfig) Dialect() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "postgres"
	case MySQL, MariaDB:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return ""
	}
}

// DSN 对应方言的连接串，未知类型返回空.
func (c *DBConfig) DSN() string {
	switch c.Dialect() {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			c.User, url.QueryEscape(c.Password), c.Host, c.Port, c.Database)
	case "sqlite":
		if c.Database == ":memory:" {
			return "file::memory:?cache=shared"
		}

		path := c.Database
		if !strings.Contains(path, ".") {
			path += ".db"
		}

		return "file:" + path
	default:
		return ""
	}
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "pastevault")
	v.SetDefault("db.database", "pastevault")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.slow_threshold", 200*time.Millisecond)
}
