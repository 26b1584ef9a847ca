package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mini-los/internal/infrastructure/logger"
)

// pool settings for a networked database
const (
	maxOpenConns    = 30
	maxIdleConns    = 10
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 10 * time.Minute
)

type options struct {
	log *zap.Logger
}

type Option func(*options)

// WithLogger routes gorm's warnings and errors to l. Without it nothing is
// logged.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func OpenMySQL(dsn string, opts ...Option) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), opts...)
}

// OpenSQLite opens a file (or ":memory:") database. SQLite serialises
// writers, so the pool is pinned to a single connection.
func OpenSQLite(path string, opts ...Option) (*gorm.DB, error) {
	gdb, err := OpenGormWithDialector(sqlite.Open(path), opts...)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// OpenGormWithDialector opens, sizes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	gdb, err := gorm.Open(dial, &gorm.Config{Logger: logger.NewGormLogger(o.log, gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dial.Name(), err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", dial.Name(), err)
	}
	return gdb, nil
}
