package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

func init() {
	RegisterDialect("postgres", postgres.Open)
	RegisterDialect("mysql", mysql.Open)
}
