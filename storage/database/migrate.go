package database

import (
	"fmt"

	"Podyom/internal/model"
)

// Migrate runs AutoMigrate for every domain model. Capability probing
// happens here once at startup instead of per-call query fallbacks.
func Migrate() error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	return db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.Participation{},
		&model.CheckIn{},
		&model.AntiCheatChallenge{},
		&model.BuddyPair{},
		&model.LedgerEntry{},
		&model.Payment{},
	)
}
