// Command generate_schema migrates a scratch in-memory record store and
// dumps the resulting DDL, which sqlc and the test helpers consume.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"filer-go/internal/database"
	"filer-go/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

func main() {
	out := flag.String("o", "internal/database/sqlc/schema.sql", "output file, relative to the module root")
	flag.Parse()
	log.SetFlags(0)

	db, err := database.OpenPureGoConnection(":memory:")
	if err != nil {
		log.Fatalf("open scratch store: %v", err)
	}
	defer db.Close()

	if err := migrations.Up(db, database.DriverPureGo); err != nil {
		log.Fatalf("migrate scratch store: %v", err)
	}

	ddl, err := dumpDDL(db)
	if err != nil {
		log.Fatalf("dump schema: %v", err)
	}
	if err := os.WriteFile(*out, []byte(header+ddl), 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	fmt.Println("wrote", *out)
}

// dumpDDL lists tables before indexes, skipping sqlite internals and the
// migrator's bookkeeping table.
func dumpDDL(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name <> 'schema_migrations'
		ORDER BY type = 'index', name`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", err
		}
		b.WriteString(stmt)
		b.WriteString(";\n\n")
	}
	return b.String(), rows.Err()
}
