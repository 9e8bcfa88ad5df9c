package testutil

import (
	"testing"

	"filer-go/internal/database"
	"filer-go/internal/filer"
)

// NewTestDatabase returns a private in-memory record store with the full
// schema loaded. It is closed via t.Cleanup.
func NewTestDatabase(t *testing.T) filer.Database {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("open in-memory record store: %v", err)
	}
	if _, err := conn.Exec(database.Schema); err != nil {
		_ = conn.Close()
		t.Fatalf("load schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(conn)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
