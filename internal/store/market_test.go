package store

import (
	"context"
	"testing"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/db"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

func newListing(userID int64) *model.MarketplaceItem {
	return &model.MarketplaceItem{
		Name:        "Desk Lamp",
		Description: "Barely used",
		Price:       15,
		Category:    "furniture",
		Condition:   "good",
		Status:      model.StatusAvailable,
		Location:    "Dorm B",
		ContactInfo: "5559876543",
		UserID:      userID,
	}
}

func TestCreateAndGetMarketplaceItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item, err := CreateMarketplaceItem(ctx, database, newListing(seller.ID))
	if err != nil {
		t.Fatalf("CreateMarketplaceItem: %v", err)
	}
	if item.Status != model.StatusAvailable {
		t.Errorf("expected status 'available', got %q", item.Status)
	}
	if item.Username != "seller" {
		t.Errorf("expected joined username 'seller', got %q", item.Username)
	}
	if item.Price != 15 {
		t.Errorf("expected price 15, got %v", item.Price)
	}
}

func TestMarkSold(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item, _ := CreateMarketplaceItem(ctx, database, newListing(seller.ID))
	if err := MarkSold(ctx, database, item.ID); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}

	got, _ := GetMarketplaceItem(ctx, database, item.ID)
	if got.Status != model.StatusSold {
		t.Errorf("expected status 'sold', got %q", got.Status)
	}
}

func TestUpdateMarketplaceItemRevertsSold(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item, _ := CreateMarketplaceItem(ctx, database, newListing(seller.ID))
	MarkSold(ctx, database, item.ID)

	item.Status = model.StatusAvailable
	item.Price = 12.5
	if err := UpdateMarketplaceItem(ctx, database, item); err != nil {
		t.Fatalf("UpdateMarketplaceItem: %v", err)
	}

	got, _ := GetMarketplaceItem(ctx, database, item.ID)
	if got.Status != model.StatusAvailable {
		t.Errorf("expected reverted status 'available', got %q", got.Status)
	}
	if got.Price != 12.5 {
		t.Errorf("expected price 12.5, got %v", got.Price)
	}
}

func TestDeleteMarketplaceItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")

	item, _ := CreateMarketplaceItem(ctx, database, newListing(seller.ID))
	if err := DeleteMarketplaceItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteMarketplaceItem: %v", err)
	}

	got, _ := GetMarketplaceItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected listing removed")
	}
}

func TestListMarketplaceItemsByUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, database, "sellera")
	b := createTestUser(t, database, "sellerb")

	CreateMarketplaceItem(ctx, database, newListing(a.ID))
	CreateMarketplaceItem(ctx, database, newListing(b.ID))
	CreateMarketplaceItem(ctx, database, newListing(b.ID))

	items, err := ListMarketplaceItemsByUser(ctx, database, b.ID)
	if err != nil {
		t.Fatalf("ListMarketplaceItemsByUser: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 listings for seller b, got %d", len(items))
	}
}

func TestSeededCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lostFound, err := ListCategories(ctx, database, model.DomainLostFound)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(lostFound) != 7 {
		t.Errorf("expected 7 lost_found categories, got %d", len(lostFound))
	}

	market, err := ListCategories(ctx, database, model.DomainMarketplace)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(market) != 8 {
		t.Errorf("expected 8 marketplace categories, got %d", len(market))
	}

	all, _ := ListCategories(ctx, database, "")
	if len(all) != len(lostFound)+len(market) {
		t.Errorf("expected %d total categories, got %d", len(lostFound)+len(market), len(all))
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createTestUser(t, database, "seller")
	buyer := createTestUser(t, database, "buyer")

	item, _ := CreateMarketplaceItem(ctx, database, newListing(seller.ID))

	f, err := CreateFeedback(ctx, database, buyer.ID, model.DomainMarketplace, item.ID, "Is this still available?")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if f.Username != "buyer" {
		t.Errorf("expected joined username 'buyer', got %q", f.Username)
	}

	comments, err := ListFeedbackForItem(ctx, database, model.DomainMarketplace, item.ID)
	if err != nil {
		t.Fatalf("ListFeedbackForItem: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
	if comments[0].Comment != "Is this still available?" {
		t.Errorf("unexpected comment %q", comments[0].Comment)
	}
}
