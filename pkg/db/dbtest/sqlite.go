// Package dbtest opens throwaway SQLite databases for repository tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLite returns a client backed by a private in-memory database with the
// given models migrated.
func NewSQLite(t testing.TB, models ...any) *db.Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	return open(t, dsn, models...)
}

// NewSQLiteFile returns a client backed by a database file under t.TempDir().
// Transactions start with BEGIN IMMEDIATE so concurrent writers queue on the
// busy timeout instead of failing.
func NewSQLiteFile(t testing.TB, models ...any) *db.Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopfront.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_foreign_keys=1", path)
	return open(t, dsn, models...)
}

func open(t testing.TB, dsn string, models ...any) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(models) > 0 {
		if err := conn.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate sqlite: %v", err)
		}
	}
	client := db.FromGorm(conn)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
