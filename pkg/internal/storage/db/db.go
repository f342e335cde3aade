// Package db 打开 sql 描述符存储使用的 GORM 连接. 驱动按方言注册，sqlite 依据 cgo 在两个实现间切换.
package db

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormprom "gorm.io/plugin/prometheus"

	"github.com/yeisme/pastevault/pkg/configs"
	nlog "github.com/yeisme/pastevault/pkg/log"
)

// Opener 根据 DSN 创建 dialector，与各驱动的 Open 函数签名一致.
type Opener func(dsn string) gorm.Dialector

var dialects = map[string]Opener{}

// RegisterDialect 注册方言驱动，重复注册会覆盖.
func RegisterDialect(name string, open Opener) {
	dialects[name] = open
}

// Dialects 已注册的方言，按名称排序.
func Dialects() []string {
	return slices.Sorted(maps.Keys(dialects))
}

// Client 持有 GORM 连接.
type Client struct {
	*gorm.DB
}

// Options 打开连接时的附加选项.
type Options struct {
	// Metrics 注册 gorm prometheus 插件，连接池指标经 /metrics 暴露
	Metrics bool
}

// New 打开连接、配置连接池并 ping 一次.
func New(ctx context.Context, cfg *configs.DBConfig, opts Options) (*Client, error) {
	open, ok := dialects[cfg.Dialect()]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	l := nlog.Logger().With().Str("component", "db").Logger()

	gdb, err := gorm.Open(open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(&l, logger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect(), err)
	}

	c := &Client{DB: gdb}

	if opts.Metrics {
		if err := c.Use(gormprom.New(gormprom.Config{DBName: cfg.Database, RefreshInterval: 15})); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("register gorm metrics: %w", err)
		}
	}

	l.Info().Str("dialect", cfg.Dialect()).Str("database", cfg.Database).Msg("database connected")

	return c, nil
}

// Close 关闭连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
