package model

import "time"

// MarketplaceItem represents a listing for sale.
type MarketplaceItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	Status      string    `json:"status"`
	ImagePath   string    `json:"image_path,omitempty"`
	ListedAt    time.Time `json:"listed_at"`
	Location    string    `json:"location,omitempty"`
	ContactInfo string    `json:"contact_info,omitempty"`
	UserID      int64     `json:"user_id"`

	// Joined display field.
	Username string `json:"username,omitempty"`
}

// Marketplace statuses. Sold is terminal in the normal flow, but an editor
// (owner or admin) may revert a listing to available.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
)

// ValidMarketplaceStatus reports whether s is a known marketplace status.
func ValidMarketplaceStatus(s string) bool {
	return s == StatusAvailable || s == StatusSold
}
