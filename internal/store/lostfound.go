package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

const lostFoundColumns = `
	i.id, i.name, i.description, i.category, i.status, i.priority, i.image_path,
	i.reported_at, i.location, i.contact_info, i.latitude, i.longitude,
	i.user_id, i.found_by, i.claimed_by,
	u.username, COALESCE(fu.username, ''), COALESCE(cu.username, '')`

const lostFoundJoins = `
	FROM lost_found_items i
	JOIN users u ON u.id = i.user_id
	LEFT JOIN users fu ON fu.id = i.found_by
	LEFT JOIN users cu ON cu.id = i.claimed_by`

// CreateLostFoundItem inserts a new report and returns the stored row.
func CreateLostFoundItem(ctx context.Context, db *sql.DB, item *model.LostFoundItem) (*model.LostFoundItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO lost_found_items
		 (name, description, category, status, priority, image_path, location,
		  contact_info, latitude, longitude, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Category, item.Status, item.Priority,
		nullString(item.ImagePath), item.Location, item.ContactInfo,
		item.Latitude, item.Longitude, item.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lost-and-found item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetLostFoundItem(ctx, db, id)
}

// GetLostFoundItem returns a report by ID with reporter/finder/claimer names.
func GetLostFoundItem(ctx context.Context, db *sql.DB, id int64) (*model.LostFoundItem, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+lostFoundColumns+lostFoundJoins+` WHERE i.id = ?`, id,
	)
	item, err := scanLostFoundItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lost-and-found item: %w", err)
	}
	return item, nil
}

// ListLostFoundItems returns all reports, newest first.
func ListLostFoundItems(ctx context.Context, db *sql.DB) ([]model.LostFoundItem, error) {
	return listLostFound(ctx, db,
		`SELECT `+lostFoundColumns+lostFoundJoins+` ORDER BY i.reported_at DESC, i.id DESC`)
}

// ListLostFoundItemsByPriority returns all reports, highest priority first.
func ListLostFoundItemsByPriority(ctx context.Context, db *sql.DB) ([]model.LostFoundItem, error) {
	return listLostFound(ctx, db,
		`SELECT `+lostFoundColumns+lostFoundJoins+` ORDER BY i.priority DESC, i.reported_at DESC`)
}

// ListLostFoundItemsByUser returns a user's own reports, newest first.
func ListLostFoundItemsByUser(ctx context.Context, db *sql.DB, userID int64) ([]model.LostFoundItem, error) {
	return listLostFound(ctx, db,
		`SELECT `+lostFoundColumns+lostFoundJoins+` WHERE i.user_id = ? ORDER BY i.reported_at DESC, i.id DESC`,
		userID)
}

func listLostFound(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.LostFoundItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lost-and-found items: %w", err)
	}
	defer rows.Close()

	var items []model.LostFoundItem
	for rows.Next() {
		item, err := scanLostFoundItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lost-and-found item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLostFoundItem(row rowScanner) (*model.LostFoundItem, error) {
	item := &model.LostFoundItem{}
	var description, category, imagePath, location, contact sql.NullString
	err := row.Scan(
		&item.ID, &item.Name, &description, &category, &item.Status, &item.Priority,
		&imagePath, &item.ReportedAt, &location, &contact, &item.Latitude,
		&item.Longitude, &item.UserID, &item.FoundBy, &item.ClaimedBy,
		&item.Username, &item.FoundByName, &item.ClaimedByName,
	)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	item.ImagePath = imagePath.String
	item.Location = location.String
	item.ContactInfo = contact.String
	return item, nil
}

// UpdateLostFoundItem persists an edited report. The statement replaces the
// full editable field set in one fixed UPDATE.
func UpdateLostFoundItem(ctx context.Context, db *sql.DB, item *model.LostFoundItem) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_found_items
		 SET name = ?, description = ?, category = ?, status = ?, priority = ?,
		     image_path = ?, location = ?, contact_info = ?, latitude = ?,
		     longitude = ?, found_by = ?, claimed_by = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Category, item.Status, item.Priority,
		nullString(item.ImagePath), item.Location, item.ContactInfo,
		item.Latitude, item.Longitude, item.FoundBy, item.ClaimedBy, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lost-and-found item: %w", err)
	}
	return nil
}

// SetFoundBy records the finder without touching the status.
func SetFoundBy(ctx context.Context, db *sql.DB, id, finderID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_found_items SET found_by = ? WHERE id = ?`,
		finderID, id,
	)
	if err != nil {
		return fmt.Errorf("setting found_by: %w", err)
	}
	return nil
}

// ClearFoundTag removes the finder annotation.
func ClearFoundTag(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_found_items SET found_by = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("clearing found tag: %w", err)
	}
	return nil
}

// SetClaim transitions a report to claimed and records the claimer in a
// single statement.
func SetClaim(ctx context.Context, db *sql.DB, id, claimerID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_found_items SET status = 'claimed', claimed_by = ? WHERE id = ?`,
		claimerID, id,
	)
	if err != nil {
		return fmt.Errorf("claiming item: %w", err)
	}
	return nil
}

// ClearClaim reverts a claimed report to found and clears the claimer.
func ClearClaim(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE lost_found_items SET status = 'found', claimed_by = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("removing claim: %w", err)
	}
	return nil
}

// DeleteLostFoundItem removes a report. Feedback rows for the item go with it.
func DeleteLostFoundItem(ctx context.Context, db *sql.DB, id int64) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM feedback WHERE item_domain = 'lost_found' AND item_id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting item feedback: %w", err)
	}
	_, err := db.ExecContext(ctx, `DELETE FROM lost_found_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lost-and-found item: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
