package db

import (
	"database/sql"
	"fmt"
)

// migration is a single idempotent schema change applied at startup.
type migration struct {
	name  string
	apply func(db *sql.DB) error
}

// migrations is the ordered migration list. Databases created before a
// column existed get it added here; fresh databases already have the full
// schema, so each entry must be a no-op when the change is present.
// Append new migrations at the end.
var migrations = []migration{
	{
		name:  "lost_found_items.found_by",
		apply: addColumn("lost_found_items", "found_by", "INTEGER REFERENCES users(id)"),
	},
	{
		name:  "lost_found_items.claimed_by",
		apply: addColumn("lost_found_items", "claimed_by", "INTEGER REFERENCES users(id)"),
	},
	{
		name:  "users.is_confirmed",
		apply: addColumn("users", "is_confirmed", "INTEGER NOT NULL DEFAULT 0"),
	},
}

// Migrate creates the schema and runs the migration list in order.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for _, m := range migrations {
		if err := m.apply(db); err != nil {
			return fmt.Errorf("running migration %s: %w", m.name, err)
		}
	}

	return nil
}

// addColumn returns a migration step that adds a column if it is missing.
// SQLite's ALTER TABLE ADD COLUMN is not idempotent, so existence is
// checked against table_info first.
func addColumn(table, column, definition string) func(db *sql.DB) error {
	return func(db *sql.DB) error {
		exists, err := columnExists(db, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
		return err
	}
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("reading table info for %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, fmt.Errorf("scanning table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
