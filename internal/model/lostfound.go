package model

import "time"

// LostFoundItem represents a lost-and-found report.
//
// FoundBy is an annotation, not a state: a third party marking an item
// "found" records who found it while the status stays whatever the owner
// set (usually still "lost") until the owner or an admin changes it.
// ClaimedBy is set only while the status is "claimed".
type LostFoundItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	ImagePath   string    `json:"image_path,omitempty"`
	ReportedAt  time.Time `json:"reported_at"`
	Location    string    `json:"location,omitempty"`
	ContactInfo string    `json:"contact_info,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	UserID      int64     `json:"user_id"`
	FoundBy     *int64    `json:"found_by,omitempty"`
	ClaimedBy   *int64    `json:"claimed_by,omitempty"`

	// Joined display fields, not columns of the item row.
	Username      string `json:"username,omitempty"`
	FoundByName   string `json:"found_by_name,omitempty"`
	ClaimedByName string `json:"claimed_by_name,omitempty"`
}

// Lost-and-found statuses.
const (
	StatusLost    = "lost"
	StatusFound   = "found"
	StatusClaimed = "claimed"
)

// ValidLostFoundStatus reports whether s is a known lost-and-found status.
func ValidLostFoundStatus(s string) bool {
	return s == StatusLost || s == StatusFound || s == StatusClaimed
}
