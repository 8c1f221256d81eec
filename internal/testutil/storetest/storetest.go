// Package storetest opens throwaway repositories for tests.
package storetest

import (
	"fmt"
	"testing"

	"mediatheque/internal/adapter/repository/sqlstore"
	"mediatheque/internal/domain/store"
	"mediatheque/internal/infrastructure/db"
	"mediatheque/pkg/id"

	"gorm.io/gorm"
)

// NewSQLite returns repositories over a private in-memory sqlite database
// that is closed when t ends.
func NewSQLite(t testing.TB) store.Repos {
	t.Helper()
	return sqlstore.NewRepos(OpenSQLite(t))
}

func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", id.NewID32())
	gdb, err := db.OpenGorm("sqlite", dsn)
	if err != nil {
		t.Fatalf("storetest: open sqlite: %v", err)
	}
	if err := sqlstore.Migrate(gdb); err != nil {
		t.Fatalf("storetest: migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
