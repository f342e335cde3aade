//go:build !cgo

package db

import "github.com/glebarez/sqlite"

// 无 cgo 时使用纯 Go 的 modernc 驱动.
func init() {
	RegisterDialect("sqlite", sqlite.Open)
}
