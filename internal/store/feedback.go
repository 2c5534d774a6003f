package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

// CreateFeedback attaches a comment to an item of either domain.
func CreateFeedback(ctx context.Context, db *sql.DB, userID int64, itemDomain string, itemID int64, comment string) (*model.Feedback, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, item_domain, item_id, comment) VALUES (?, ?, ?, ?)`,
		userID, itemDomain, itemID, comment,
	)
	if err != nil {
		return nil, fmt.Errorf("creating feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting feedback id: %w", err)
	}

	f := &model.Feedback{}
	err = db.QueryRowContext(ctx,
		`SELECT f.id, f.user_id, f.item_domain, f.item_id, f.comment, f.created_at, u.username
		 FROM feedback f JOIN users u ON u.id = f.user_id WHERE f.id = ?`, id,
	).Scan(&f.ID, &f.UserID, &f.ItemDomain, &f.ItemID, &f.Comment, &f.CreatedAt, &f.Username)
	if err != nil {
		return nil, fmt.Errorf("getting feedback: %w", err)
	}
	return f, nil
}

// ListFeedbackForItem returns an item's comments, newest first.
func ListFeedbackForItem(ctx context.Context, db *sql.DB, itemDomain string, itemID int64) ([]model.Feedback, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT f.id, f.user_id, f.item_domain, f.item_id, f.comment, f.created_at, u.username
		 FROM feedback f JOIN users u ON u.id = f.user_id
		 WHERE f.item_domain = ? AND f.item_id = ?
		 ORDER BY f.created_at DESC, f.id DESC`,
		itemDomain, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var feedback []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.ItemDomain, &f.ItemID, &f.Comment, &f.CreatedAt, &f.Username); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}
