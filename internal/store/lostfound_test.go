package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/db"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

func createTestUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), database, username, "hash", username+"@campus.test", model.RoleStudent)
	if err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

func newReport(userID int64) *model.LostFoundItem {
	return &model.LostFoundItem{
		Name:        "Blue Backpack",
		Description: "Left in the library",
		Category:    "accessories",
		Status:      model.StatusLost,
		Priority:    2,
		Location:    "Main Library",
		ContactInfo: "5551234567",
		UserID:      userID,
	}
}

func TestCreateAndGetLostFoundItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "owner")

	item, err := CreateLostFoundItem(ctx, database, newReport(owner.ID))
	if err != nil {
		t.Fatalf("CreateLostFoundItem: %v", err)
	}
	if item.Status != model.StatusLost {
		t.Errorf("expected status 'lost', got %q", item.Status)
	}
	if item.FoundBy != nil {
		t.Errorf("expected found_by unset on new report, got %v", item.FoundBy)
	}
	if item.Username != "owner" {
		t.Errorf("expected joined username 'owner', got %q", item.Username)
	}
}

func TestGetMissingLostFoundItem(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetLostFoundItem(context.Background(), database, 404)
	if err != nil {
		t.Fatalf("GetLostFoundItem: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for missing item, got %+v", item)
	}
}

func TestListLostFoundItemsOrdering(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "owner")

	low := newReport(owner.ID)
	low.Name = "Low Priority"
	low.Priority = 1
	CreateLostFoundItem(ctx, database, low)

	high := newReport(owner.ID)
	high.Name = "High Priority"
	high.Priority = 5
	CreateLostFoundItem(ctx, database, high)

	byDate, err := ListLostFoundItems(ctx, database)
	if err != nil {
		t.Fatalf("ListLostFoundItems: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("expected 2 items, got %d", len(byDate))
	}
	if byDate[0].Name != "High Priority" {
		t.Errorf("expected newest first, got %q", byDate[0].Name)
	}

	byPriority, err := ListLostFoundItemsByPriority(ctx, database)
	if err != nil {
		t.Fatalf("ListLostFoundItemsByPriority: %v", err)
	}
	if byPriority[0].Priority != 5 {
		t.Errorf("expected highest priority first, got %d", byPriority[0].Priority)
	}
}

func TestListLostFoundItemsByUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, database, "a")
	b := createTestUser(t, database, "b")

	CreateLostFoundItem(ctx, database, newReport(a.ID))
	CreateLostFoundItem(ctx, database, newReport(b.ID))

	mine, err := ListLostFoundItemsByUser(ctx, database, a.ID)
	if err != nil {
		t.Fatalf("ListLostFoundItemsByUser: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 item for user a, got %d", len(mine))
	}
}

func TestFoundAndClaimStatements(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "owner")
	finder := createTestUser(t, database, "finder")

	item, _ := CreateLostFoundItem(ctx, database, newReport(owner.ID))

	if err := SetFoundBy(ctx, database, item.ID, finder.ID); err != nil {
		t.Fatalf("SetFoundBy: %v", err)
	}
	got, _ := GetLostFoundItem(ctx, database, item.ID)
	if got.FoundBy == nil || *got.FoundBy != finder.ID {
		t.Errorf("expected found_by = %d, got %v", finder.ID, got.FoundBy)
	}
	if got.Status != model.StatusLost {
		t.Errorf("SetFoundBy must not change status, got %q", got.Status)
	}
	if got.FoundByName != "finder" {
		t.Errorf("expected joined finder name, got %q", got.FoundByName)
	}

	if err := SetClaim(ctx, database, item.ID, finder.ID); err != nil {
		t.Fatalf("SetClaim: %v", err)
	}
	got, _ = GetLostFoundItem(ctx, database, item.ID)
	if got.Status != model.StatusClaimed {
		t.Errorf("expected status 'claimed', got %q", got.Status)
	}
	if got.ClaimedBy == nil || *got.ClaimedBy != finder.ID {
		t.Errorf("expected claimed_by = %d, got %v", finder.ID, got.ClaimedBy)
	}

	if err := ClearClaim(ctx, database, item.ID); err != nil {
		t.Fatalf("ClearClaim: %v", err)
	}
	got, _ = GetLostFoundItem(ctx, database, item.ID)
	if got.Status != model.StatusFound || got.ClaimedBy != nil {
		t.Errorf("expected found/claimed_by-nil after ClearClaim, got %q/%v", got.Status, got.ClaimedBy)
	}

	if err := ClearFoundTag(ctx, database, item.ID); err != nil {
		t.Fatalf("ClearFoundTag: %v", err)
	}
	got, _ = GetLostFoundItem(ctx, database, item.ID)
	if got.FoundBy != nil {
		t.Errorf("expected found_by cleared, got %v", got.FoundBy)
	}
	if got.Status != model.StatusFound {
		t.Errorf("ClearFoundTag must not change status, got %q", got.Status)
	}
}

func TestUpdateLostFoundItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "owner")

	item, _ := CreateLostFoundItem(ctx, database, newReport(owner.ID))
	item.Name = "Red Backpack"
	item.Status = model.StatusFound
	item.Location = "Cafeteria"

	if err := UpdateLostFoundItem(ctx, database, item); err != nil {
		t.Fatalf("UpdateLostFoundItem: %v", err)
	}

	got, _ := GetLostFoundItem(ctx, database, item.ID)
	if got.Name != "Red Backpack" || got.Status != model.StatusFound || got.Location != "Cafeteria" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestDeleteLostFoundItemCascadesFeedback(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "owner")
	commenter := createTestUser(t, database, "commenter")

	item, _ := CreateLostFoundItem(ctx, database, newReport(owner.ID))
	CreateFeedback(ctx, database, commenter.ID, model.DomainLostFound, item.ID, "I think I saw this")

	if err := DeleteLostFoundItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteLostFoundItem: %v", err)
	}

	got, _ := GetLostFoundItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected item removed")
	}
	comments, _ := ListFeedbackForItem(ctx, database, model.DomainLostFound, item.ID)
	if len(comments) != 0 {
		t.Errorf("expected feedback removed with item, got %d comments", len(comments))
	}
}
