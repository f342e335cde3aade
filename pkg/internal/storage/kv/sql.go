package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/storage/db"
)

// SQLOptions sql 类型的工厂参数，连接参数来自 db 配置段.
type SQLOptions struct {
	KV      configs.SQLKVConfig
	DB      configs.DBConfig
	Metrics bool
}

// kvRow 一行一个键.
type kvRow struct {
	Key       string     `gorm:"column:k;primaryKey;size:191"`
	Value     []byte     `gorm:"column:v"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
}

// SQLKV 基于关系数据库单表的 KV 实现，过期行在读取时删除.
type SQLKV struct {
	db     *gorm.DB
	owned  *db.Client
	table  string
	now    func() time.Time
	cancel context.CancelFunc
}

// NewSQLKV 按配置连接数据库并建表.
func NewSQLKV(ctx context.Context, config any) (KVStore, error) {
	opts, ok := config.(*SQLOptions)
	if !ok {
		return nil, fmt.Errorf("invalid SQL KV config")
	}

	client, err := db.New(ctx, &opts.DB, db.Options{Metrics: opts.Metrics})
	if err != nil {
		return nil, err
	}

	s, err := NewSQLKVFromDB(ctx, client.DB, opts.KV.Table, opts.KV.AutoMigrate)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	s.owned = client

	if opts.KV.PurgeInterval > 0 {
		s.startPurge(time.Duration(opts.KV.PurgeInterval) * time.Second)
	}

	return s, nil
}

// NewSQLKVFromDB 复用已有 gorm 连接.
func NewSQLKVFromDB(ctx context.Context, gdb *gorm.DB, table string, autoMigrate bool) (*SQLKV, error) {
	if table == "" {
		table = "pastekv"
	}

	s := &SQLKV{db: gdb, table: table, now: time.Now}

	if autoMigrate {
		if err := s.tx(ctx).AutoMigrate(&kvRow{}); err != nil {
			return nil, fmt.Errorf("migrate kv table %s: %w", table, err)
		}
	}

	return s, nil
}

func (s *SQLKV) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

func (s *SQLKV) alive(ctx context.Context) *gorm.DB {
	return s.tx(ctx).Where("expires_at IS NULL OR expires_at > ?", s.now())
}

// Get 获取键的值.
func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var row kvRow

	err := s.tx(ctx).Where("k = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	if row.ExpiresAt != nil && !s.now().Before(*row.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return nil, notFound(key)
	}

	return row.Value, nil
}

// Set 插入或覆盖键的值.
func (s *SQLKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := kvRow{Key: key, Value: value}

	if ttl > 0 {
		at := s.now().Add(ttl)
		row.ExpiresAt = &at
	}

	err := s.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v", "expires_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (s *SQLKV) Delete(ctx context.Context, key string) error {
	if err := s.tx(ctx).Where("k = ?", key).Delete(&kvRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (s *SQLKV) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := s.alive(ctx).Where("k = ?", key).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}

	return n > 0, nil
}

// Keys 获取匹配的键，前缀部分下推为 LIKE 查询.
func (s *SQLKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	q := s.alive(ctx)

	// 含 LIKE 通配符的前缀不下推，各方言的转义语法不一致
	if prefix := literalPrefix(pattern); prefix != "" && !strings.ContainsAny(prefix, "%_") {
		q = q.Where("k LIKE ?", prefix+"%")
	}

	var all []string
	if err := q.Order("k").Pluck("k", &all).Error; err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	keys := make([]string, 0, len(all))

	for _, k := range all {
		if matchKey(pattern, k) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Purge 删除所有已过期的行，返回删除数量.
func (s *SQLKV) Purge(ctx context.Context) (int64, error) {
	res := s.tx(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).Delete(&kvRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge expired keys: %w", res.Error)
	}

	return res.RowsAffected, nil
}

func (s *SQLKV) startPurge(every time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		t := time.NewTicker(every)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = s.Purge(ctx)
			}
		}
	}()
}

// Close 停止清理并关闭自己打开的连接.
func (s *SQLKV) Close() error {
	if s.cancel != nil {
		s.cancel()
	}

	if s.owned != nil {
		return s.owned.Close()
	}

	return nil
}

// literalPrefix 返回 glob 模式中第一个元字符之前的部分.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}

	return pattern
}

func init() {
	RegisterKVFactory(KVTypeSQL, NewSQLKV)
}
