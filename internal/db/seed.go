package db

import (
	"database/sql"
	"fmt"
)

// Default categories per domain, seeded once at initialization.
var defaultCategories = map[string][]string{
	"lost_found":  {"electronics", "clothing", "accessories", "books", "documents", "keys", "other"},
	"marketplace": {"electronics", "textbooks", "furniture", "clothing", "services", "tickets", "free", "other"},
}

// Seed inserts the static category reference data and the always-confirmed
// guest account. Safe to run on every startup.
func Seed(db *sql.DB, guestPasswordHash string) error {
	for domain, names := range defaultCategories {
		for _, name := range names {
			_, err := db.Exec(
				`INSERT OR IGNORE INTO categories (name, domain) VALUES (?, ?)`,
				name, domain,
			)
			if err != nil {
				return fmt.Errorf("seeding category %s/%s: %w", domain, name, err)
			}
		}
	}

	_, err := db.Exec(
		`INSERT OR IGNORE INTO users (username, password_hash, email, role, is_admin, is_confirmed)
		 VALUES ('temp', ?, 'temp@campushub.test', 'guest', 0, 1)`,
		guestPasswordHash,
	)
	if err != nil {
		return fmt.Errorf("seeding guest user: %w", err)
	}

	return nil
}
