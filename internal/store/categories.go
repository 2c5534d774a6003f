package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

// ListCategories returns the seeded categories for a domain, or all
// categories if domain is empty.
func ListCategories(ctx context.Context, db *sql.DB, domain string) ([]model.Category, error) {
	var rows *sql.Rows
	var err error

	if domain != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, domain FROM categories WHERE domain = ? ORDER BY name`, domain,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, domain FROM categories ORDER BY domain, name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
