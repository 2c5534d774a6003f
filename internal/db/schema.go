package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL DEFAULT 'student' CHECK (role IN ('student', 'guest', 'admin')),
    is_admin      INTEGER NOT NULL DEFAULT 0,
    is_confirmed  INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lost_found_items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT,
    category     TEXT,
    status       TEXT NOT NULL DEFAULT 'lost' CHECK (status IN ('lost', 'found', 'claimed')),
    priority     INTEGER NOT NULL DEFAULT 1,
    image_path   TEXT,
    reported_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    location     TEXT,
    contact_info TEXT,
    latitude     REAL,
    longitude    REAL,
    user_id      INTEGER NOT NULL REFERENCES users(id),
    found_by     INTEGER REFERENCES users(id),
    claimed_by   INTEGER REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS marketplace_items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    description  TEXT,
    price        REAL NOT NULL CHECK (price >= 0),
    category     TEXT,
    condition    TEXT,
    status       TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'sold')),
    image_path   TEXT,
    listed_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    location     TEXT,
    contact_info TEXT,
    user_id      INTEGER NOT NULL REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS categories (
    id     INTEGER PRIMARY KEY,
    name   TEXT NOT NULL,
    domain TEXT NOT NULL CHECK (domain IN ('lost_found', 'marketplace')),
    UNIQUE (name, domain)
);

CREATE TABLE IF NOT EXISTS feedback (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    item_domain TEXT NOT NULL CHECK (item_domain IN ('lost_found', 'marketplace')),
    item_id     INTEGER NOT NULL,
    comment     TEXT NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lost_found_items_user ON lost_found_items(user_id);
CREATE INDEX IF NOT EXISTS idx_marketplace_items_user ON marketplace_items(user_id);
CREATE INDEX IF NOT EXISTS idx_feedback_item ON feedback(item_domain, item_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
