package storage

import (
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"envisonet-server-go/internal/platform/errors"
)

// Open creates the sqlite database under dataDir and runs migrations.
func Open(dataDir string) (*gorm.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "open", "failed to create data directory", err)
	}

	dsn := filepath.Join(dataDir, "envisonet.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "open", "failed to open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "open", "failed to access sql handle", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenInMemory opens a throwaway database for tests.
func OpenInMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "open", "failed to open in-memory database", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &UserState{}); err != nil {
		return errors.Wrap(errors.KindStorage, "migrate", "failed to run migrations", err)
	}
	return nil
}
