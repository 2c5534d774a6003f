package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/lifecycle"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

func apiActor(r *http.Request) lifecycle.Actor {
	claims := GetClaims(r.Context())
	return lifecycle.Actor{ID: claims.UserID, Admin: claims.IsAdmin}
}

// requireCreator rejects the guest role, which cannot create items.
func requireCreator(w http.ResponseWriter, r *http.Request) bool {
	if GetClaims(r.Context()).Role == model.RoleGuest {
		jsonError(w, http.StatusForbidden, "guests cannot create items")
		return false
	}
	return true
}

// lostFoundRequest is the JSON payload for creating or editing a report.
type lostFoundRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	Location    string   `json:"location"`
	ContactInfo string   `json:"contact_info"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ListLostFound handles GET /api/lost.
func (s *Server) ListLostFound(w http.ResponseWriter, r *http.Request) {
	var (
		items []model.LostFoundItem
		err   error
	)
	if r.URL.Query().Get("sort") == "priority" {
		items, err = store.ListLostFoundItemsByPriority(r.Context(), s.DB)
	} else {
		items, err = store.ListLostFoundItems(r.Context(), s.DB)
	}
	if err != nil {
		slog.Error("failed to list lost-and-found items", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// CreateLostFound handles POST /api/lost.
func (s *Server) CreateLostFound(w http.ResponseWriter, r *http.Request) {
	if !requireCreator(w, r) {
		return
	}

	var req lostFoundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		req.Status = model.StatusLost
	}

	item := &model.LostFoundItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Priority:    req.Priority,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		UserID:      GetClaims(r.Context()).UserID,
	}
	if err := lifecycle.ValidateLostFoundReport(item); err != nil {
		lifecycleError(w, err)
		return
	}

	created, err := store.CreateLostFoundItem(r.Context(), s.DB, item)
	if err != nil {
		slog.Error("failed to create lost-and-found item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// getLostItem fetches the report from the path {id}, writing the error
// response itself when it cannot.
func (s *Server) getLostItem(w http.ResponseWriter, r *http.Request) *model.LostFoundItem {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil
	}

	item, err := store.GetLostFoundItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get lost-and-found item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return nil
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// GetLostFound handles GET /api/lost/{id}.
func (s *Server) GetLostFound(w http.ResponseWriter, r *http.Request) {
	if item := s.getLostItem(w, r); item != nil {
		jsonResponse(w, http.StatusOK, item)
	}
}

// UpdateLostFound handles PUT /api/lost/{id}.
func (s *Server) UpdateLostFound(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}

	var req lostFoundRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edit := lifecycle.LostFoundEdit{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Priority:    req.Priority,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if err := lifecycle.EditLostFound(item, apiActor(r), edit); err != nil {
		lifecycleError(w, err)
		return
	}

	if err := store.UpdateLostFoundItem(r.Context(), s.DB, item); err != nil {
		slog.Error("failed to update lost-and-found item", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// DeleteLostFound handles DELETE /api/lost/{id}.
func (s *Server) DeleteLostFound(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}
	if !lifecycle.CanMutate(apiActor(r), item.UserID) {
		jsonError(w, http.StatusForbidden, "only the owner or an admin may delete this item")
		return
	}

	if err := store.DeleteLostFoundItem(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to delete lost-and-found item", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if item.ImagePath != "" {
		s.Media.Delete(item.ImagePath)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// lostFoundEventResponse wraps the claim and mark-found results. OwnerEmail
// is set only when the owner notification could not be delivered, so the
// caller can contact them directly.
type lostFoundEventResponse struct {
	Item       *model.LostFoundItem `json:"item"`
	OwnerEmail string               `json:"owner_email,omitempty"`
}

// notifyOwner emails the item's owner about a claim or find. It returns the
// owner's email address when delivery fails, and "" otherwise.
func (s *Server) notifyOwner(r *http.Request, ownerID int64, build func(email string) mail.Message) string {
	owner, err := store.GetUser(r.Context(), s.DB, ownerID)
	if err != nil || owner == nil {
		slog.Error("failed to look up item owner", "owner", ownerID, "error", err)
		return ""
	}

	if err := s.Notifier.Send(build(owner.Email)); err != nil {
		slog.Warn("failed to notify owner", "owner", owner.Username, "error", err)
		return owner.Email
	}
	return ""
}

// ClaimLostFound handles POST /api/lost/{id}/claim.
func (s *Server) ClaimLostFound(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}
	claims := GetClaims(r.Context())

	if err := lifecycle.Claim(item, apiActor(r)); err != nil {
		lifecycleError(w, err)
		return
	}
	if err := store.SetClaim(r.Context(), s.DB, item.ID, claims.UserID); err != nil {
		slog.Error("failed to record claim", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ownerEmail := s.notifyOwner(r, item.UserID, func(email string) mail.Message {
		return mail.ItemClaimed(email, claims.Username, item.Name)
	})
	jsonResponse(w, http.StatusOK, lostFoundEventResponse{Item: item, OwnerEmail: ownerEmail})
}

// MarkLostFoundFound handles POST /api/lost/{id}/found.
func (s *Server) MarkLostFoundFound(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}
	claims := GetClaims(r.Context())

	if err := lifecycle.MarkFound(item, apiActor(r)); err != nil {
		lifecycleError(w, err)
		return
	}
	if err := store.SetFoundBy(r.Context(), s.DB, item.ID, claims.UserID); err != nil {
		slog.Error("failed to record finder", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ownerEmail := s.notifyOwner(r, item.UserID, func(email string) mail.Message {
		return mail.ItemFound(email, claims.Username, item.Name)
	})
	jsonResponse(w, http.StatusOK, lostFoundEventResponse{Item: item, OwnerEmail: ownerEmail})
}

// RemoveLostFoundClaim handles POST /api/lost/{id}/remove_claim.
func (s *Server) RemoveLostFoundClaim(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}

	if err := lifecycle.RemoveClaim(item, apiActor(r)); err != nil {
		lifecycleError(w, err)
		return
	}
	if err := store.ClearClaim(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to remove claim", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// RemoveLostFoundTag handles POST /api/lost/{id}/remove_found.
func (s *Server) RemoveLostFoundTag(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}

	if err := lifecycle.RemoveFoundTag(item, apiActor(r)); err != nil {
		lifecycleError(w, err)
		return
	}
	if err := store.ClearFoundTag(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to remove found tag", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ListLostFoundFeedback handles GET /api/lost/{id}/feedback.
func (s *Server) ListLostFoundFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}
	s.listFeedback(w, r, model.DomainLostFound, item.ID)
}

// CreateLostFoundFeedback handles POST /api/lost/{id}/feedback.
func (s *Server) CreateLostFoundFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.getLostItem(w, r)
	if item == nil {
		return
	}
	s.createFeedback(w, r, model.DomainLostFound, item.ID)
}

func (s *Server) listFeedback(w http.ResponseWriter, r *http.Request, domain string, itemID int64) {
	feedback, err := store.ListFeedbackForItem(r.Context(), s.DB, domain, itemID)
	if err != nil {
		slog.Error("failed to list feedback", "item", itemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, feedback)
}

func (s *Server) createFeedback(w http.ResponseWriter, r *http.Request, domain string, itemID int64) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Comment == "" {
		jsonError(w, http.StatusBadRequest, "comment is required")
		return
	}

	feedback, err := store.CreateFeedback(r.Context(), s.DB, GetClaims(r.Context()).UserID, domain, itemID, req.Comment)
	if err != nil {
		slog.Error("failed to create feedback", "item", itemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusCreated, feedback)
}
