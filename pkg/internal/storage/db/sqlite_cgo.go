//go:build cgo

package db

import "gorm.io/driver/sqlite"

// 有 cgo 时使用 mattn/go-sqlite3.
func init() {
	RegisterDialect("sqlite", sqlite.Open)
}
