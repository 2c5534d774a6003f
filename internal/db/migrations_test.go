package db

import "testing"

func TestMigrateIsIdempotent(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	for i := 0; i < 3; i++ {
		if err := Migrate(database); err != nil {
			t.Fatalf("Migrate run %d: %v", i+1, err)
		}
	}

	for _, col := range []struct{ table, column string }{
		{"lost_found_items", "found_by"},
		{"lost_found_items", "claimed_by"},
		{"users", "is_confirmed"},
	} {
		exists, err := columnExists(database, col.table, col.column)
		if err != nil {
			t.Fatalf("columnExists(%s.%s): %v", col.table, col.column, err)
		}
		if !exists {
			t.Errorf("column %s.%s missing after migrations", col.table, col.column)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	// NewTestDB already seeded once; a second run must not duplicate rows.
	if err := Seed(database, "another-hash"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	var guests int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM users WHERE role = 'guest'`,
	).Scan(&guests); err != nil {
		t.Fatalf("counting guests: %v", err)
	}
	if guests != 1 {
		t.Errorf("expected 1 guest account, got %d", guests)
	}

	var categories int
	if err := database.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&categories); err != nil {
		t.Fatalf("counting categories: %v", err)
	}
	if categories != 15 {
		t.Errorf("expected 15 default categories, got %d", categories)
	}
}
