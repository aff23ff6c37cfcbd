package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Connect opens a gorm connection for driver "sqlite" or "mysql".
func Connect(cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch cfg.Driver {
	case "", "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite: empty path")
		}
		gdb, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.Path)), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY between transactions
		sqlDB.SetMaxOpenConns(1)
		return gdb, nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		return gorm.Open(mysql.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
}

// SQLiteDSN adds a busy timeout to plain paths; "file:" DSNs pass through.
func SQLiteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
