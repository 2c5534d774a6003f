// Package lifecycle enforces the status transitions and ownership rules for
// lost-and-found and marketplace items.
//
// Every entry point is a pure function of (actor, item, command): the acting
// principal is always an explicit Actor value, never ambient request state.
// Commands mutate the passed item in place after all guards pass, so a
// returned error always means the item was left untouched. Persistence is
// the caller's job; each command corresponds to exactly one fixed store
// statement.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

// Error taxonomy. Handlers map these onto redirect warnings or HTTP status
// codes; not-found is represented by the store returning a nil item.
var (
	// ErrUnauthorized means the actor may not perform the mutation.
	ErrUnauthorized = errors.New("not authorized")

	// ErrValidation means a field payload is malformed or missing.
	ErrValidation = errors.New("invalid input")

	// ErrConflict means the item's current status does not permit the
	// requested transition.
	ErrConflict = errors.New("invalid state for operation")

	// ErrNoFoundTag means remove-found-tag was called on an item with no
	// finder recorded.
	ErrNoFoundTag = errors.New("no found tag to remove")
)

// Actor is the principal attempting a mutation.
type Actor struct {
	ID    int64
	Admin bool
}

// ActorFor builds an Actor from a user record.
func ActorFor(u *model.User) Actor {
	return Actor{ID: u.ID, Admin: u.IsAdmin}
}

// CanMutate is the shared authorization guard for edit and delete across
// both item domains: the owner or an admin may mutate.
func CanMutate(actor Actor, ownerID int64) bool {
	return actor.ID == ownerID || actor.Admin
}

// ValidateContact checks that contact info is exactly 10 ASCII digits.
func ValidateContact(contact string) error {
	if len(contact) != 10 {
		return fmt.Errorf("%w: contact info must be a 10-digit phone number", ErrValidation)
	}
	for i := 0; i < len(contact); i++ {
		if contact[i] < '0' || contact[i] > '9' {
			return fmt.Errorf("%w: contact info must be a 10-digit phone number", ErrValidation)
		}
	}
	return nil
}

// MarkFound records the actor as the finder of a lost item and leaves the
// status untouched: "found" is an annotation, not a transition, until the
// owner or an editor explicitly changes the status.
func MarkFound(item *model.LostFoundItem, actor Actor) error {
	if actor.ID == item.UserID {
		return fmt.Errorf("%w: cannot mark your own item as found", ErrUnauthorized)
	}
	if item.Status != model.StatusLost {
		return fmt.Errorf("%w: item is not lost", ErrConflict)
	}

	finder := actor.ID
	item.FoundBy = &finder
	return nil
}

// Claim transitions a found item to claimed and records the claimer.
func Claim(item *model.LostFoundItem, actor Actor) error {
	if actor.ID == item.UserID {
		return fmt.Errorf("%w: cannot claim your own item", ErrUnauthorized)
	}
	if item.Status != model.StatusFound {
		return fmt.Errorf("%w: item is not marked found", ErrConflict)
	}

	claimer := actor.ID
	item.Status = model.StatusClaimed
	item.ClaimedBy = &claimer
	return nil
}

// RemoveClaim reverts a claimed item to found and clears the claimer.
// Only the owner or an admin may do this.
func RemoveClaim(item *model.LostFoundItem, actor Actor) error {
	if !CanMutate(actor, item.UserID) {
		return fmt.Errorf("%w: only the owner or an admin may remove a claim", ErrUnauthorized)
	}
	if item.Status != model.StatusClaimed {
		return fmt.Errorf("%w: item is not claimed", ErrConflict)
	}

	item.Status = model.StatusFound
	item.ClaimedBy = nil
	return nil
}

// RemoveFoundTag clears the finder annotation, keeping status unchanged.
// Calling it when no finder is recorded reports ErrNoFoundTag and leaves
// the item as-is, so repeated calls are safe.
func RemoveFoundTag(item *model.LostFoundItem, actor Actor) error {
	if !CanMutate(actor, item.UserID) {
		return fmt.Errorf("%w: only the owner or an admin may remove the found tag", ErrUnauthorized)
	}
	if item.FoundBy == nil {
		return ErrNoFoundTag
	}

	item.FoundBy = nil
	return nil
}

// LostFoundEdit is the closed field set an editor may change on a report.
type LostFoundEdit struct {
	Name        string
	Description string
	Category    string
	Status      string
	Priority    int
	Location    string
	ContactInfo string
	Latitude    *float64
	Longitude   *float64
	ImagePath   string // empty keeps the current image
}

// EditLostFound replaces a report's fields. If the new status is no longer
// found or claimed, the corresponding finder/claimer annotation is cleared.
func EditLostFound(item *model.LostFoundItem, actor Actor, edit LostFoundEdit) error {
	if !CanMutate(actor, item.UserID) {
		return fmt.Errorf("%w: only the owner or an admin may edit this item", ErrUnauthorized)
	}
	if err := validateLostFoundFields(edit.Name, edit.Status, edit.ContactInfo); err != nil {
		return err
	}

	item.Name = edit.Name
	item.Description = edit.Description
	item.Category = edit.Category
	item.Status = edit.Status
	item.Priority = edit.Priority
	item.Location = edit.Location
	item.ContactInfo = edit.ContactInfo
	item.Latitude = edit.Latitude
	item.Longitude = edit.Longitude
	if edit.ImagePath != "" {
		item.ImagePath = edit.ImagePath
	}

	if item.Status != model.StatusFound {
		item.FoundBy = nil
	}
	if item.Status != model.StatusClaimed {
		item.ClaimedBy = nil
	}
	return nil
}

// ValidateLostFoundReport checks a new report before insertion.
func ValidateLostFoundReport(item *model.LostFoundItem) error {
	return validateLostFoundFields(item.Name, item.Status, item.ContactInfo)
}

func validateLostFoundFields(name, status, contact string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !model.ValidLostFoundStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return ValidateContact(contact)
}

// Buy marks an available listing as sold. The caller releases the seller's
// contact details to the buyer as a side effect.
func Buy(item *model.MarketplaceItem, actor Actor) error {
	if actor.ID == item.UserID {
		return fmt.Errorf("%w: cannot buy your own item", ErrUnauthorized)
	}
	if item.Status != model.StatusAvailable {
		return fmt.Errorf("%w: item is not available", ErrConflict)
	}

	item.Status = model.StatusSold
	return nil
}

// MarketplaceEdit is the closed field set an editor may change on a listing.
// Editors may set any valid status, including reverting sold to available.
type MarketplaceEdit struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Condition   string
	Status      string
	Location    string
	ContactInfo string
	ImagePath   string // empty keeps the current image
}

// EditMarketplace replaces a listing's fields.
func EditMarketplace(item *model.MarketplaceItem, actor Actor, edit MarketplaceEdit) error {
	if !CanMutate(actor, item.UserID) {
		return fmt.Errorf("%w: only the owner or an admin may edit this item", ErrUnauthorized)
	}
	if err := validateMarketplaceFields(edit.Name, edit.Status, edit.ContactInfo, edit.Price); err != nil {
		return err
	}

	item.Name = edit.Name
	item.Description = edit.Description
	item.Price = edit.Price
	item.Category = edit.Category
	item.Condition = edit.Condition
	item.Status = edit.Status
	item.Location = edit.Location
	item.ContactInfo = edit.ContactInfo
	if edit.ImagePath != "" {
		item.ImagePath = edit.ImagePath
	}
	return nil
}

// ValidateListing checks a new marketplace listing before insertion.
func ValidateListing(item *model.MarketplaceItem) error {
	return validateMarketplaceFields(item.Name, item.Status, item.ContactInfo, item.Price)
}

func validateMarketplaceFields(name, status, contact string, price float64) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !model.ValidMarketplaceStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return ValidateContact(contact)
}
