package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/lifecycle"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

// MarketDashboard handles GET /market/.
func (s *Server) MarketDashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	items, err := store.ListMarketplaceItems(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list marketplace items", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	categories, err := store.ListCategories(r.Context(), s.DB, model.DomainMarketplace)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	var available, sold int
	for _, item := range items {
		if item.Status == model.StatusSold {
			sold++
		} else {
			available++
		}
	}

	s.Templates.Render(w, "market_dashboard.html", &struct {
		PageData
		Items          []model.MarketplaceItem
		Categories     []model.Category
		AvailableCount int
		SoldCount      int
	}{
		PageData:       PageData{Title: "Marketplace", User: claims, Flash: PopFlash(w, r)},
		Items:          items,
		Categories:     categories,
		AvailableCount: available,
		SoldCount:      sold,
	})
}

// loadMarketItem fetches the listing from the path {id}, writing a 404 or
// 500 itself when it cannot.
func (s *Server) loadMarketItem(w http.ResponseWriter, r *http.Request) *model.MarketplaceItem {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}

	item, err := store.GetMarketplaceItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get marketplace item", "id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}
	if item == nil {
		http.NotFound(w, r)
		return nil
	}
	return item
}

// MarketDetail handles GET /market/item/{id}.
func (s *Server) MarketDetail(w http.ResponseWriter, r *http.Request) {
	item := s.loadMarketItem(w, r)
	if item == nil {
		return
	}
	claims := GetWebClaims(r.Context())

	feedback, err := store.ListFeedbackForItem(r.Context(), s.DB, model.DomainMarketplace, item.ID)
	if err != nil {
		slog.Error("failed to list feedback", "item", item.ID, "error", err)
	}

	s.Templates.Render(w, "market_detail.html", &struct {
		PageData
		Item      *model.MarketplaceItem
		Feedback  []model.Feedback
		CanMutate bool
		CanBuy    bool
	}{
		PageData:  PageData{Title: item.Name, User: claims, Flash: PopFlash(w, r)},
		Item:      item,
		Feedback:  feedback,
		CanMutate: lifecycle.CanMutate(webActor(r), item.UserID),
		CanBuy:    item.Status == model.StatusAvailable && claims.UserID != item.UserID,
	})
}

type marketFormData struct {
	PageData
	Item       *model.MarketplaceItem
	Categories []model.Category
	Action     string
}

func (s *Server) renderMarketForm(w http.ResponseWriter, r *http.Request, title, action string, item *model.MarketplaceItem, flash *Flash) {
	categories, err := store.ListCategories(r.Context(), s.DB, model.DomainMarketplace)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}
	if flash == nil {
		flash = PopFlash(w, r)
	}

	s.Templates.Render(w, "market_form.html", &marketFormData{
		PageData:   PageData{Title: title, User: GetWebClaims(r.Context()), Flash: flash},
		Item:       item,
		Categories: categories,
		Action:     action,
	})
}

// SellPage handles GET /market/new.
func (s *Server) SellPage(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w, r) {
		return
	}
	s.renderMarketForm(w, r, "Sell Item", "/market/new", nil, nil)
}

// SellSubmit handles POST /market/new.
func (s *Server) SellSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		SetFlash(w, "danger", "Upload too large or malformed.")
		http.Redirect(w, r, "/market/new", http.StatusSeeOther)
		return
	}

	claims := GetWebClaims(r.Context())
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)

	item := &model.MarketplaceItem{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Status:      model.StatusAvailable,
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contact_info"),
		UserID:      claims.UserID,
	}

	if err := lifecycle.ValidateListing(item); err != nil {
		s.renderMarketForm(w, r, "Sell Item", "/market/new", item,
			&Flash{Level: "danger", Message: userMessage(err)})
		return
	}

	imagePath, err := s.saveFormImage(r)
	if err != nil {
		s.renderMarketForm(w, r, "Sell Item", "/market/new", item,
			&Flash{Level: "danger", Message: "Could not process the uploaded image."})
		return
	}
	item.ImagePath = imagePath

	created, err := store.CreateMarketplaceItem(r.Context(), s.DB, item)
	if err != nil {
		slog.Error("failed to create marketplace item", "error", err)
		SetFlash(w, "danger", "Could not save the listing, please try again.")
		http.Redirect(w, r, "/market/new", http.StatusSeeOther)
		return
	}

	slog.Info("marketplace item listed", "id", created.ID, "user", claims.Username)
	SetFlash(w, "success", "Item listed for sale.")
	http.Redirect(w, r, "/market/item/"+strconv.FormatInt(created.ID, 10), http.StatusSeeOther)
}

// MarketEditPage handles GET /market/edit/{id}.
func (s *Server) MarketEditPage(w http.ResponseWriter, r *http.Request) {
	item := s.loadMarketItem(w, r)
	if item == nil {
		return
	}
	if !lifecycle.CanMutate(webActor(r), item.UserID) {
		SetFlash(w, "warning", "You can only edit your own items.")
		http.Redirect(w, r, "/market/item/"+strconv.FormatInt(item.ID, 10), http.StatusSeeOther)
		return
	}
	s.renderMarketForm(w, r, "Edit Listing", "/market/edit/"+strconv.FormatInt(item.ID, 10), item, nil)
}

// MarketEditSubmit handles POST /market/edit/{id}.
func (s *Server) MarketEditSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadMarketItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/market/item/" + strconv.FormatInt(item.ID, 10)
	editURL := "/market/edit/" + strconv.FormatInt(item.ID, 10)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		SetFlash(w, "danger", "Upload too large or malformed.")
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	imagePath, err := s.saveFormImage(r)
	if err != nil {
		SetFlash(w, "danger", "Could not process the uploaded image.")
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	oldImage := item.ImagePath

	edit := lifecycle.MarketplaceEdit{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Status:      r.FormValue("status"),
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contact_info"),
		ImagePath:   imagePath,
	}
	if edit.Status == "" {
		edit.Status = item.Status
	}

	if err := lifecycle.EditMarketplace(item, webActor(r), edit); err != nil {
		if imagePath != "" {
			s.Media.Delete(imagePath)
		}
		SetFlash(w, "danger", userMessage(err))
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if err := store.UpdateMarketplaceItem(r.Context(), s.DB, item); err != nil {
		slog.Error("failed to update marketplace item", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not save changes, please try again.")
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if imagePath != "" && oldImage != "" && oldImage != imagePath {
		s.Media.Delete(oldImage)
	}

	SetFlash(w, "success", "Listing updated.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// deleteMarketplaceItem removes a listing, its image file and feedback after
// the ownership check. It sets the outcome flash but leaves redirecting to
// the caller.
func (s *Server) deleteMarketplaceItem(w http.ResponseWriter, r *http.Request, actor lifecycle.Actor, id int64) {
	item, err := store.GetMarketplaceItem(r.Context(), s.DB, id)
	if err != nil || item == nil {
		SetFlash(w, "warning", "Item not found.")
		return
	}
	if !lifecycle.CanMutate(actor, item.UserID) {
		SetFlash(w, "warning", "You can only delete your own items.")
		return
	}

	if err := store.DeleteMarketplaceItem(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete marketplace item", "id", id, "error", err)
		SetFlash(w, "danger", "Could not delete the item.")
		return
	}
	if item.ImagePath != "" {
		s.Media.Delete(item.ImagePath)
	}
	SetFlash(w, "success", "Listing deleted.")
}

// MarketDelete handles POST /market/delete/{id}.
func (s *Server) MarketDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.deleteMarketplaceItem(w, r, webActor(r), id)
	http.Redirect(w, r, "/market/", http.StatusSeeOther)
}

// MarketBuy handles GET /market/buy/{id}. A successful buy marks the
// item sold and sends the buyer a small text file with the seller's contact
// details, which is how buyer and seller get in touch.
func (s *Server) MarketBuy(w http.ResponseWriter, r *http.Request) {
	item := s.loadMarketItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/market/item/" + strconv.FormatInt(item.ID, 10)

	if err := lifecycle.Buy(item, webActor(r)); err != nil {
		SetFlash(w, "warning", userMessage(err))
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	seller, err := store.GetUser(r.Context(), s.DB, item.UserID)
	if err != nil || seller == nil {
		slog.Error("failed to look up seller", "item", item.ID, "error", err)
		SetFlash(w, "danger", "Could not complete the purchase.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	if err := store.MarkSold(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to mark item sold", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not complete the purchase.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	slog.Info("marketplace item sold", "id", item.ID,
		"buyer", GetWebClaims(r.Context()).Username, "seller", seller.Username)

	body := fmt.Sprintf(
		"Purchase confirmed: %s\n\nSeller: %s\nEmail: %s\nContact: %s\n\nReach out to arrange pickup and payment.\n",
		item.Name, seller.Username, seller.Email, item.ContactInfo)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=seller_%d.txt", item.ID))
	w.Write([]byte(body))
}

// MarketFeedback handles POST /market/item/{id}/feedback.
func (s *Server) MarketFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.loadMarketItem(w, r)
	if item == nil {
		return
	}
	s.submitFeedback(w, r, model.DomainMarketplace, item.ID, "/market/item/"+strconv.FormatInt(item.ID, 10))
}
