package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"

	DefaultSQLiteDSN = "task_calendar.db"
	DefaultMySQLDSN  = "root:@tcp(127.0.0.1:3306)/task_calendar?charset=utf8mb4&parseTime=True&loc=UTC"
)

// Options configures NewGormDB. Empty fields fall back to SQLite with a local file.
type Options struct {
	Type     string
	DSN      string
	LogLevel logger.LogLevel
}

// NewGormDB opens the snapshot cache database.
func NewGormDB(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch opts.Type {
	case TypeMySQL:
		dsn := opts.DSN
		if dsn == "" {
			dsn = DefaultMySQLDSN
			log.Println("Using default MySQL DSN: ", dsn)
		}
		dialector = mysql.Open(dsn)
	case "", TypeSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = DefaultSQLiteDSN
			log.Println("Using default SQLite DSN: ", dsn)
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", opts.Type)
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully.")
	return db, nil
}

// AutoMigrate performs auto-migration for the given GORM models.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	log.Println("Database migration completed successfully for provided models.")
	return nil
}

// GormLogLevel maps a service log level name onto gorm's levels.
func GormLogLevel(name string) logger.LogLevel {
	switch name {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	}
	return logger.Warn
}
