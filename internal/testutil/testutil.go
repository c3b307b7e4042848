// Package testutil opens throwaway sqlite databases for service and
// sweep tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/pkg/logger"
)

var dbSeq atomic.Int64

// Tests never call logger.Init; give them a discarding logger.
func init() {
	if logger.Logger == nil {
		logger.Logger = zap.NewNop()
	}
}

// OpenDB returns an isolated in-memory database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.Participation{},
		&model.CheckIn{},
		&model.AntiCheatChallenge{},
		&model.BuddyPair{},
		&model.LedgerEntry{},
		&model.Payment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })

	return db
}
