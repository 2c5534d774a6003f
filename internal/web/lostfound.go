package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/lifecycle"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

const maxUploadSize = 10 << 20 // 10 MiB

// webActor builds the lifecycle actor for the signed-in user.
func webActor(r *http.Request) lifecycle.Actor {
	claims := GetWebClaims(r.Context())
	return lifecycle.Actor{ID: claims.UserID, Admin: claims.IsAdmin}
}

// LostDashboard handles GET /lost/.
func (s *Server) LostDashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	items, err := store.ListLostFoundItems(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list lost-and-found items", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	byPriority, err := store.ListLostFoundItemsByPriority(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list items by priority", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if len(byPriority) > 10 {
		byPriority = byPriority[:10]
	}

	categories, err := store.ListCategories(r.Context(), s.DB, model.DomainLostFound)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	var lost, found, claimed int
	for _, item := range items {
		switch item.Status {
		case model.StatusLost:
			lost++
		case model.StatusFound:
			found++
		case model.StatusClaimed:
			claimed++
		}
	}

	s.Templates.Render(w, "lost_dashboard.html", &struct {
		PageData
		Items        []model.LostFoundItem
		TopPriority  []model.LostFoundItem
		Categories   []model.Category
		LostCount    int
		FoundCount   int
		ClaimedCount int
	}{
		PageData:     PageData{Title: "Lost & Found", User: claims, Flash: PopFlash(w, r)},
		Items:        items,
		TopPriority:  byPriority,
		Categories:   categories,
		LostCount:    lost,
		FoundCount:   found,
		ClaimedCount: claimed,
	})
}

// loadLostItem fetches the report from the path {id}, writing a 404 or 500
// itself when it cannot.
func (s *Server) loadLostItem(w http.ResponseWriter, r *http.Request) *model.LostFoundItem {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}

	item, err := store.GetLostFoundItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get lost-and-found item", "id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}
	if item == nil {
		http.NotFound(w, r)
		return nil
	}
	return item
}

// LostDetail handles GET /lost/item/{id}.
func (s *Server) LostDetail(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	claims := GetWebClaims(r.Context())

	feedback, err := store.ListFeedbackForItem(r.Context(), s.DB, model.DomainLostFound, item.ID)
	if err != nil {
		slog.Error("failed to list feedback", "item", item.ID, "error", err)
	}

	s.Templates.Render(w, "lost_detail.html", &struct {
		PageData
		Item      *model.LostFoundItem
		Feedback  []model.Feedback
		CanMutate bool
	}{
		PageData:  PageData{Title: item.Name, User: claims, Flash: PopFlash(w, r)},
		Item:      item,
		Feedback:  feedback,
		CanMutate: lifecycle.CanMutate(webActor(r), item.UserID),
	})
}

// lostFormData populates the shared report/edit form template.
type lostFormData struct {
	PageData
	Item       *model.LostFoundItem
	Categories []model.Category
	Action     string
}

func (s *Server) renderLostForm(w http.ResponseWriter, r *http.Request, title, action string, item *model.LostFoundItem, flash *Flash) {
	categories, err := store.ListCategories(r.Context(), s.DB, model.DomainLostFound)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}
	if flash == nil {
		flash = PopFlash(w, r)
	}

	s.Templates.Render(w, "lost_form.html", &lostFormData{
		PageData:   PageData{Title: title, User: GetWebClaims(r.Context()), Flash: flash},
		Item:       item,
		Categories: categories,
		Action:     action,
	})
}

// requireReporter rejects the guest account, which can browse and interact
// but not create items.
func (s *Server) requireReporter(w http.ResponseWriter, r *http.Request) bool {
	claims := GetWebClaims(r.Context())
	if claims.Role == model.RoleGuest {
		SetFlash(w, "warning", "Guests cannot create items. Please register an account.")
		http.Redirect(w, r, "/lost/", http.StatusSeeOther)
		return false
	}
	return true
}

// ReportPage handles GET /lost/new.
func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w, r) {
		return
	}
	s.renderLostForm(w, r, "Report Item", "/lost/new", nil, nil)
}

// formFloat parses an optional coordinate field.
func formFloat(r *http.Request, name string) *float64 {
	v := r.FormValue(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// saveFormImage stores the uploaded "image" file, if any. It returns the
// web path, or "" when no file was attached.
func (s *Server) saveFormImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	return s.Media.SaveUpload(file, header.Filename)
}

// ReportSubmit handles POST /lost/new.
func (s *Server) ReportSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w, r) {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		SetFlash(w, "danger", "Upload too large or malformed.")
		http.Redirect(w, r, "/lost/new", http.StatusSeeOther)
		return
	}

	claims := GetWebClaims(r.Context())
	priority, _ := strconv.Atoi(r.FormValue("priority"))

	item := &model.LostFoundItem{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Status:      r.FormValue("status"),
		Priority:    priority,
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contact_info"),
		Latitude:    formFloat(r, "latitude"),
		Longitude:   formFloat(r, "longitude"),
		UserID:      claims.UserID,
	}
	if item.Status == "" {
		item.Status = model.StatusLost
	}

	if err := lifecycle.ValidateLostFoundReport(item); err != nil {
		s.renderLostForm(w, r, "Report Item", "/lost/new", item,
			&Flash{Level: "danger", Message: userMessage(err)})
		return
	}

	imagePath, err := s.saveFormImage(r)
	if err != nil {
		s.renderLostForm(w, r, "Report Item", "/lost/new", item,
			&Flash{Level: "danger", Message: "Could not process the uploaded image."})
		return
	}
	item.ImagePath = imagePath

	created, err := store.CreateLostFoundItem(r.Context(), s.DB, item)
	if err != nil {
		slog.Error("failed to create lost-and-found item", "error", err)
		SetFlash(w, "danger", "Could not save the report, please try again.")
		http.Redirect(w, r, "/lost/new", http.StatusSeeOther)
		return
	}

	slog.Info("lost-and-found item reported", "id", created.ID, "user", claims.Username)
	SetFlash(w, "success", "Item reported successfully.")
	http.Redirect(w, r, "/lost/item/"+strconv.FormatInt(created.ID, 10), http.StatusSeeOther)
}

// LostEditPage handles GET /lost/edit/{id}.
func (s *Server) LostEditPage(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	if !lifecycle.CanMutate(webActor(r), item.UserID) {
		SetFlash(w, "warning", "You can only edit your own items.")
		http.Redirect(w, r, "/lost/item/"+strconv.FormatInt(item.ID, 10), http.StatusSeeOther)
		return
	}
	s.renderLostForm(w, r, "Edit Item", "/lost/edit/"+strconv.FormatInt(item.ID, 10), item, nil)
}

// LostEditSubmit handles POST /lost/edit/{id}.
func (s *Server) LostEditSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/lost/item/" + strconv.FormatInt(item.ID, 10)
	editURL := "/lost/edit/" + strconv.FormatInt(item.ID, 10)

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

	priority, _ := strconv.Atoi(r.FormValue("priority"))
	oldImage := item.ImagePath

	edit := lifecycle.LostFoundEdit{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Status:      r.FormValue("status"),
		Priority:    priority,
		Location:    r.FormValue("location"),
		ContactInfo: r.FormValue("contact_info"),
		Latitude:    formFloat(r, "latitude"),
		Longitude:   formFloat(r, "longitude"),
		ImagePath:   imagePath,
	}

	if err := lifecycle.EditLostFound(item, webActor(r), edit); err != nil {
		if imagePath != "" {
			s.Media.Delete(imagePath)
		}
		SetFlash(w, "danger", userMessage(err))
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if err := store.UpdateLostFoundItem(r.Context(), s.DB, item); err != nil {
		slog.Error("failed to update lost-and-found item", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not save changes, please try again.")
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	if imagePath != "" && oldImage != "" && oldImage != imagePath {
		s.Media.Delete(oldImage)
	}

	SetFlash(w, "success", "Item updated.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// deleteLostFoundItem removes a report, its image file and feedback after the
// ownership check. It sets the outcome flash but leaves redirecting to the
// caller.
func (s *Server) deleteLostFoundItem(w http.ResponseWriter, r *http.Request, actor lifecycle.Actor, id int64) {
	item, err := store.GetLostFoundItem(r.Context(), s.DB, id)
	if err != nil || item == nil {
		SetFlash(w, "warning", "Item not found.")
		return
	}
	if !lifecycle.CanMutate(actor, item.UserID) {
		SetFlash(w, "warning", "You can only delete your own items.")
		return
	}

	if err := store.DeleteLostFoundItem(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete lost-and-found item", "id", id, "error", err)
		SetFlash(w, "danger", "Could not delete the item.")
		return
	}
	if item.ImagePath != "" {
		s.Media.Delete(item.ImagePath)
	}
	SetFlash(w, "success", "Item deleted.")
}

// LostDelete handles POST /lost/delete/{id}.
func (s *Server) LostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.deleteLostFoundItem(w, r, webActor(r), id)
	http.Redirect(w, r, "/lost/", http.StatusSeeOther)
}

// LostClaim handles POST /lost/item/{id}/claim.
func (s *Server) LostClaim(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/lost/item/" + strconv.FormatInt(item.ID, 10)
	claims := GetWebClaims(r.Context())

	if err := lifecycle.Claim(item, webActor(r)); err != nil {
		SetFlash(w, "warning", userMessage(err))
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}
	if err := store.SetClaim(r.Context(), s.DB, item.ID, claims.UserID); err != nil {
		slog.Error("failed to record claim", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not record the claim.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	s.notifyOwner(w, r, item.UserID, func(email string) mail.Message {
		return mail.ItemClaimed(email, claims.Username, item.Name)
	}, "Item claimed. The owner has been notified.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// LostFoundUser handles POST /lost/item/{id}/found_user.
func (s *Server) LostFoundUser(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/lost/item/" + strconv.FormatInt(item.ID, 10)
	claims := GetWebClaims(r.Context())

	if err := lifecycle.MarkFound(item, webActor(r)); err != nil {
		SetFlash(w, "warning", userMessage(err))
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}
	if err := store.SetFoundBy(r.Context(), s.DB, item.ID, claims.UserID); err != nil {
		slog.Error("failed to record finder", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not record the find.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	s.notifyOwner(w, r, item.UserID, func(email string) mail.Message {
		return mail.ItemFound(email, claims.Username, item.Name)
	}, "Marked as found. The owner has been notified.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// notifyOwner emails the item's owner about a claim or find. If delivery
// fails, the actor gets the owner's email address in the flash instead.
func (s *Server) notifyOwner(w http.ResponseWriter, r *http.Request, ownerID int64, build func(email string) mail.Message, okMessage string) {
	owner, err := store.GetUser(r.Context(), s.DB, ownerID)
	if err != nil || owner == nil {
		slog.Error("failed to look up item owner", "owner", ownerID, "error", err)
		SetFlash(w, "success", okMessage)
		return
	}

	if err := s.Notifier.Send(build(owner.Email)); err != nil {
		slog.Warn("failed to notify owner", "owner", owner.Username, "error", err)
		SetFlash(w, "warning", "Done, but the owner could not be emailed. Contact them at "+owner.Email+".")
		return
	}
	SetFlash(w, "success", okMessage)
}

// LostRemoveClaim handles POST /lost/item/{id}/remove_claim.
func (s *Server) LostRemoveClaim(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/lost/item/" + strconv.FormatInt(item.ID, 10)

	if err := lifecycle.RemoveClaim(item, webActor(r)); err != nil {
		SetFlash(w, "warning", userMessage(err))
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}
	if err := store.ClearClaim(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to remove claim", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not remove the claim.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	SetFlash(w, "success", "Claim removed. The item is marked found again.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// LostRemoveFound handles POST /lost/item/{id}/remove_found.
func (s *Server) LostRemoveFound(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	itemURL := "/lost/item/" + strconv.FormatInt(item.ID, 10)

	if err := lifecycle.RemoveFoundTag(item, webActor(r)); err != nil {
		if errors.Is(err, lifecycle.ErrNoFoundTag) {
			SetFlash(w, "info", "No found tag to remove.")
		} else {
			SetFlash(w, "warning", userMessage(err))
		}
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}
	if err := store.ClearFoundTag(r.Context(), s.DB, item.ID); err != nil {
		slog.Error("failed to remove found tag", "id", item.ID, "error", err)
		SetFlash(w, "danger", "Could not remove the found tag.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	SetFlash(w, "success", "Found tag removed.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// LostFeedback handles POST /lost/item/{id}/feedback.
func (s *Server) LostFeedback(w http.ResponseWriter, r *http.Request) {
	item := s.loadLostItem(w, r)
	if item == nil {
		return
	}
	s.submitFeedback(w, r, model.DomainLostFound, item.ID, "/lost/item/"+strconv.FormatInt(item.ID, 10))
}

// submitFeedback attaches a comment to an item of either domain and
// redirects back to its detail page.
func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request, domain string, itemID int64, itemURL string) {
	claims := GetWebClaims(r.Context())
	comment := r.FormValue("comment")
	if comment == "" {
		SetFlash(w, "warning", "Comment cannot be empty.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	if _, err := store.CreateFeedback(r.Context(), s.DB, claims.UserID, domain, itemID, comment); err != nil {
		slog.Error("failed to create feedback", "item", itemID, "error", err)
		SetFlash(w, "danger", "Could not post the comment.")
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}

	SetFlash(w, "success", "Comment posted.")
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// userMessage maps lifecycle errors onto messages safe to show users.
func userMessage(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrUnauthorized),
		errors.Is(err, lifecycle.ErrValidation),
		errors.Is(err, lifecycle.ErrConflict),
		errors.Is(err, lifecycle.ErrNoFoundTag):
		return err.Error()
	default:
		return "Something went wrong, please try again."
	}
}
