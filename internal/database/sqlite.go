// Package database opens the SQLite database shared by the auth and store
// modules.
package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPath is used when CHAT_DB_PATH is unset.
const DefaultPath = "chat.db"

// DSN enables foreign keys and waits on a locked database instead of failing.
func DSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Open connects to the database at path. Unique and foreign key violations
// come back as gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
