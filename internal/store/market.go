package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

const marketColumns = `
	i.id, i.name, i.description, i.price, i.category, i.condition, i.status,
	i.image_path, i.listed_at, i.location, i.contact_info, i.user_id, u.username`

const marketJoins = `
	FROM marketplace_items i
	JOIN users u ON u.id = i.user_id`

// CreateMarketplaceItem inserts a new listing and returns the stored row.
func CreateMarketplaceItem(ctx context.Context, db *sql.DB, item *model.MarketplaceItem) (*model.MarketplaceItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO marketplace_items
		 (name, description, price, category, condition, status, image_path,
		  location, contact_info, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Price, item.Category, item.Condition,
		item.Status, nullString(item.ImagePath), item.Location, item.ContactInfo,
		item.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating marketplace item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetMarketplaceItem(ctx, db, id)
}

// GetMarketplaceItem returns a listing by ID with the seller's username.
func GetMarketplaceItem(ctx context.Context, db *sql.DB, id int64) (*model.MarketplaceItem, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+marketColumns+marketJoins+` WHERE i.id = ?`, id,
	)
	item, err := scanMarketplaceItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting marketplace item: %w", err)
	}
	return item, nil
}

// ListMarketplaceItems returns all listings, newest first.
func ListMarketplaceItems(ctx context.Context, db *sql.DB) ([]model.MarketplaceItem, error) {
	return listMarketplace(ctx, db,
		`SELECT `+marketColumns+marketJoins+` ORDER BY i.listed_at DESC, i.id DESC`)
}

// ListMarketplaceItemsByUser returns a user's own listings, newest first.
func ListMarketplaceItemsByUser(ctx context.Context, db *sql.DB, userID int64) ([]model.MarketplaceItem, error) {
	return listMarketplace(ctx, db,
		`SELECT `+marketColumns+marketJoins+` WHERE i.user_id = ? ORDER BY i.listed_at DESC, i.id DESC`,
		userID)
}

func listMarketplace(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.MarketplaceItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing marketplace items: %w", err)
	}
	defer rows.Close()

	var items []model.MarketplaceItem
	for rows.Next() {
		item, err := scanMarketplaceItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning marketplace item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanMarketplaceItem(row rowScanner) (*model.MarketplaceItem, error) {
	item := &model.MarketplaceItem{}
	var description, category, condition, imagePath, location, contact sql.NullString
	err := row.Scan(
		&item.ID, &item.Name, &description, &item.Price, &category, &condition,
		&item.Status, &imagePath, &item.ListedAt, &location, &contact,
		&item.UserID, &item.Username,
	)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	item.Condition = condition.String
	item.ImagePath = imagePath.String
	item.Location = location.String
	item.ContactInfo = contact.String
	return item, nil
}

// UpdateMarketplaceItem persists an edited listing in one fixed UPDATE.
func UpdateMarketplaceItem(ctx context.Context, db *sql.DB, item *model.MarketplaceItem) error {
	_, err := db.ExecContext(ctx,
		`UPDATE marketplace_items
		 SET name = ?, description = ?, price = ?, category = ?, condition = ?,
		     status = ?, image_path = ?, location = ?, contact_info = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Price, item.Category, item.Condition,
		item.Status, nullString(item.ImagePath), item.Location, item.ContactInfo,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating marketplace item: %w", err)
	}
	return nil
}

// MarkSold records a completed buy.
func MarkSold(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE marketplace_items SET status = 'sold' WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("marking item sold: %w", err)
	}
	return nil
}

// DeleteMarketplaceItem removes a listing and its feedback.
func DeleteMarketplaceItem(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM feedback WHERE item_domain = 'marketplace' AND item_id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting item feedback: %w", err)
	}
	_, err := db.ExecContext(ctx, `DELETE FROM marketplace_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting marketplace item: %w", err)
	}
	return nil
}
