// Package db owns the portal's SQLite database: opening it, evolving its
// schema through ordered migrations, and seeding the categories and the
// shared guest account.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openPragmas tunes the connection for a single web process serving the
// portal: WAL so dashboard reads do not block item writes, a busy timeout
// to ride out concurrent form submissions, and enforced foreign keys so
// deleting a user or item cannot strand its feedback rows.
var openPragmas = []string{
	"journal_mode=WAL",
	"busy_timeout=5000",
	"foreign_keys=ON",
	"synchronous=NORMAL",
}

// Open opens the portal database at path, creating the file if needed.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening portal database %s: %w", path, err)
	}

	for _, pragma := range openPragmas {
		if _, err := conn.Exec("PRAGMA " + pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying PRAGMA %s: %w", pragma, err)
		}
	}

	return conn, nil
}
