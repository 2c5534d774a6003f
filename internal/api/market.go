package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/lifecycle"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

// marketplaceRequest is the JSON payload for creating or editing a listing.
type marketplaceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Condition   string  `json:"condition"`
	Status      string  `json:"status"`
	Location    string  `json:"location"`
	ContactInfo string  `json:"contact_info"`
}

// ListMarketplace handles GET /api/market.
func (s *Server) ListMarketplace(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListMarketplaceItems(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list marketplace items", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// CreateMarketplace handles POST /api/market.
func (s *Server) CreateMarketplace(w http.ResponseWriter, r *http.Request) {
	if !requireCreator(w, r) {
		return
	}

	var req marketplaceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := &model.MarketplaceItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Status:      model.StatusAvailable,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
		UserID:      GetClaims(r.Context()).UserID,
	}
	if err := lifecycle.ValidateListing(item); err != nil {
		lifecycleError(w, err)
		return
	}

	created, err := store.CreateMarketplaceItem(r.Context(), s.DB, item)
	if err != nil {
		slog.Error("failed to create marketplace item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// getMarketItem fetches the listing from the path {id}, writing the error
// response itself when it cannot.
func (s *Server) getMarketItem(w http.ResponseWriter, r *http.Request) *model.MarketplaceItem {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil
	}

	item, err := store.GetMarketplaceItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get marketplace item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return nil
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// GetMarketplace handles GET /api/market/{id}.
func (s *Server) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	if item := s.getMarketItem(w, r); item != nil {
		jsonResponse(w, http.StatusOK, item)
	}
}

// UpdateMarketplace handles PUT /api/market/{id}.
func (s *Server) UpdateMarketplace(w http.ResponseWriter, r *http.Request) {
	item := s.getMarketItem(w, r)
	if item == nil {
		return
	}

	var req marketplaceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = item.Status
	}

	edit := lifecycle.MarketplaceEdit{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Status:      req.Status,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
	}
	if err := lifecycle.EditMarketplace(item, apiActor(r), edit); err != nil {
		lifecycleError(w, err)
		return
	}

	if err := store.UpdateMarketplaceItem(r.Context(), s.DB, item); err != nil {
		slog.Error("failed to update marketplace item", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DeleteMarketplace handles DELETE /api/market/{id}.
func (s *Server) DeleteMarketplace(w http.ResponseWriter, r *http.Request) {
	item := s.getMarketItem(w, r)
	if item == nil {
		return
	}
	if !lifecycle.CanMutate(apiActor(r), item.UserID) {
		jsonError(w, http.StatusForbidden, "only the owner or an admin may delete this item")
		return
	}

	if err := store.DeleteMarketplaceItem(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to delete marketplace item", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if item.ImagePath != "" {
		s.Media.Delete(item.ImagePath)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// BuyMarketplace handles POST /api/market/{id}/buy. The response carries the
// seller's contact details so buyer and seller can get in touch.
func (s *Server) BuyMarketplace(w http.ResponseWriter, r *http.Request) {
	item := s.getMarketItem(w, r)
	if item == nil {
		return
	}

	if err := lifecycle.Buy(item, apiActor(r)); err != nil {
		lifecycleError(w, err)
		return
	}

	seller, err := store.GetUser(r.Context(), s.DB, item.UserID)
	if err != nil || seller == nil {
		slog.Error("failed to look up seller", "item", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := store.MarkSold(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to mark item sold", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item": item,
		"seller": map[string]string{
			"username": seller.Username,
			"email":    seller.Email,
			"contact":  item.ContactInfo,
		},
	})
}

// ListMarketplaceFeedback handles GET /api/market/{id}/feedback.
func (s *Server) ListMarketplaceFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.getMarketItem(w, r)
	if item == nil {
		return
	}
	s.listFeedback(w, r, model.DomainMarketplace, item.ID)
}

// CreateMarketplaceFeedback handles POST /api/market/{id}/feedback.
func (s *Server) CreateMarketplaceFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.getMarketItem(w, r)
	if item == nil {
		return
	}
	s.createFeedback(w, r, model.DomainMarketplace, item.ID)
}
