package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func env(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// InitDB membuka koneksi database dari environment. DB_DRIVER=sqlite
// dipakai untuk pengembangan lokal tanpa MySQL.
func InitDB() (*gorm.DB, error) {
	if env("DB_DRIVER", "mysql") == "sqlite" {
		return gorm.Open(sqlite.Open(env("DB_PATH", "self_order.db")), &gorm.Config{})
	}

	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env("DB_USER", "root"),
		os.Getenv("DB_PASSWORD"),
		env("DB_HOST", "127.0.0.1"),
		env("DB_PORT", "3306"),
		env("DB_NAME", "self_order"),
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}
