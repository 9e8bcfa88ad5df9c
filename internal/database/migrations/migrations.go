// Package migrations owns the record store schema. The SQL lives in files/
// and is embedded, so a binary always knows which schema it expects.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var files embed.FS

// ErrUnversioned is returned for a record store that has never been migrated.
var ErrUnversioned = errors.New("record store has no schema version, run `filer db migrate`")

// State describes where a record store sits relative to the embedded files.
type State struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// Check returns nil only when db is clean and exactly at the latest
// embedded version. driver is the database/sql driver name db was
// opened with, "sqlite3" or "sqlite".
func Check(db *sql.DB, driver string) error {
	st, err := Inspect(db, driver)
	if err != nil {
		return err
	}
	switch {
	case st.Dirty:
		return fmt.Errorf("record store is dirty at schema version %d; a previous migration failed", st.Current)
	case st.Current < st.Latest:
		return fmt.Errorf("record store schema is at version %d, this binary expects %d", st.Current, st.Latest)
	case st.Current > st.Latest:
		return fmt.Errorf("record store schema version %d is newer than this binary (%d); upgrade filer", st.Current, st.Latest)
	}
	return nil
}

// Inspect reads the schema version recorded in db.
func Inspect(db *sql.DB, driver string) (State, error) {
	latest, err := LatestVersion()
	if err != nil {
		return State{}, err
	}

	// The migrate instance is deliberately left open: closing it closes db.
	m, err := open(db, driver)
	if err != nil {
		return State{}, err
	}
	current, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return State{}, ErrUnversioned
	}
	if err != nil {
		return State{}, fmt.Errorf("read schema version: %w", err)
	}
	return State{Current: current, Latest: latest, Dirty: dirty}, nil
}

// Up applies every pending migration. An up-to-date store is not an error.
func Up(db *sql.DB, driver string) error {
	m, err := open(db, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// LatestVersion is the newest migration embedded in the binary.
func LatestVersion() (uint, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return 0, fmt.Errorf("read embedded migrations: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("read embedded migrations: %w", err)
	}
	// Next reports an error once v is the last migration.
	for next, err := src.Next(v); err == nil; next, err = src.Next(v) {
		v = next
	}
	return v, nil
}

func open(db *sql.DB, driver string) (*migrate.Migrate, error) {
	var (
		target migratedb.Driver
		err    error
	)
	switch driver {
	case "sqlite3":
		target, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "sqlite":
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("no migration driver for %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("prepare %s migration driver: %w", driver, err)
	}

	src, err := iofs.New(files, "files")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
