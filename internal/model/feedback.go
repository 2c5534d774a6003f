package model

import "time"

// Feedback is a free-text comment on an item of either domain.
type Feedback struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ItemDomain string    `json:"item_domain"`
	ItemID     int64     `json:"item_id"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined display field.
	Username string `json:"username,omitempty"`
}
