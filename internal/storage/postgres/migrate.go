package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration directions accepted by Migrate.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// ErrInvalidDirection is returned by Migrate for a direction other than up or down.
var ErrInvalidDirection = errors.New("postgres: migration direction must be up or down")

// MigrationResult reports the schema state after Migrate.
type MigrationResult struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the target version.
	Changed bool
}

// Migrate applies the migrations at sourceURL (e.g. "file://migrations") to
// the database at dsn. steps == 0 migrates all the way in direction.
//
// Precondition: steps >= 0.
// Postcondition: A schema already at the target yields Changed == false and a nil error.
func Migrate(sourceURL, dsn, direction string, steps int) (MigrationResult, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return MigrationResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case direction == DirectionUp && steps > 0:
		err = m.Steps(steps)
	case direction == DirectionUp:
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}

	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return MigrationResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("reading schema version: %w", verr)
	}
	return MigrationResult{Version: version, Dirty: dirty, Changed: !noChange}, nil
}
