package db

import (
	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/store"
	"github.com/deskwise/deskwise/store/db/postgres"
	"github.com/deskwise/deskwise/store/db/sqlite"
)

// ============================================================================
// DATABASE SUPPORT POLICY
// ============================================================================
// This project supports only PostgreSQL and SQLite databases.
//
// PostgreSQL: Full support for production use, including vector search.
// SQLite: Limited support for development/testing. Conversation persistence
// works, vector search does not (no pgvector equivalent).
// ============================================================================

// NewDBDriver creates a new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
