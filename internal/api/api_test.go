package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/auth"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/db"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/imaging"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/media"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	return setupTestServerWith(t, mail.LogNotifier{})
}

func setupTestServerWith(t *testing.T, notifier mail.Notifier) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)

	mediaStore, err := media.NewStore(t.TempDir(), imaging.DefaultOptions())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	apiServer := &Server{
		DB:        database,
		JWTSecret: testJWTSecret,
		Media:     mediaStore,
		Notifier:  notifier,
		BaseURL:   "http://localhost:8080",
	}
	server := httptest.NewServer(apiServer.Router())
	t.Cleanup(server.Close)

	return server, database
}

// newConfirmedUser creates a confirmed account directly in the store and
// logs it in through the API, returning its bearer token.
func newConfirmedUser(t *testing.T, server *httptest.Server, database *sql.DB, username string) string {
	t.Helper()
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	user, err := store.CreateUser(ctx, database, username, string(hash), username+"@example.com", model.RoleStudent)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.ConfirmUser(ctx, database, user.ID); err != nil {
		t.Fatalf("ConfirmUser: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"username": username, "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, dst any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestRegisterConfirmLoginFlow(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "password",
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	// Login is rejected until the email is confirmed.
	loginBody, _ := json.Marshal(map[string]string{"username": "newuser", "password": "password"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(loginBody))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unconfirmed login: expected 403, got %d", resp.StatusCode)
	}

	confirmToken, err := auth.GenerateConfirmToken(testJWTSecret, "newuser@example.com")
	if err != nil {
		t.Fatalf("GenerateConfirmToken: %v", err)
	}
	resp, _ = http.Get(server.URL + "/api/auth/confirm/" + confirmToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("confirmed login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed login: expected 200, got %d", resp.StatusCode)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	server, database := setupTestServer(t)
	newConfirmedUser(t, server, database, "alice")

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}
}

func TestLostFoundClaimChain(t *testing.T) {
	server, database := setupTestServer(t)
	owner := newConfirmedUser(t, server, database, "owner")
	finder := newConfirmedUser(t, server, database, "finder")

	// Owner reports a lost wallet.
	req, _ := authRequest("POST", server.URL+"/api/lost", owner, map[string]any{
		"name":         "Wallet",
		"category":     "Accessories",
		"priority":     3,
		"location":     "Library",
		"contact_info": "0123456789",
	})
	var item model.LostFoundItem
	doJSON(t, req, http.StatusCreated, &item)
	if item.Status != model.StatusLost {
		t.Fatalf("expected status lost, got %q", item.Status)
	}
	itemURL := server.URL + "/api/lost/" + itoa(item.ID)

	// The owner cannot mark their own item found.
	req, _ = authRequest("POST", itemURL+"/found", owner, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	// A finder marks it found: the finder is recorded, but the status
	// stays lost until the owner updates it.
	var event struct {
		Item model.LostFoundItem `json:"item"`
	}
	req, _ = authRequest("POST", itemURL+"/found", finder, nil)
	doJSON(t, req, http.StatusOK, &event)
	item = event.Item
	if item.Status != model.StatusLost {
		t.Errorf("mark-found changed status to %q", item.Status)
	}
	if item.FoundBy == nil {
		t.Fatal("finder not recorded")
	}

	// Claiming requires the status to be found.
	req, _ = authRequest("POST", itemURL+"/claim", finder, nil)
	doJSON(t, req, http.StatusConflict, nil)

	// Owner updates the status to found.
	req, _ = authRequest("PUT", itemURL, owner, map[string]any{
		"name":         "Wallet",
		"category":     "Accessories",
		"status":       model.StatusFound,
		"priority":     3,
		"location":     "Library",
		"contact_info": "0123456789",
	})
	doJSON(t, req, http.StatusOK, &item)
	if item.Status != model.StatusFound {
		t.Fatalf("expected status found, got %q", item.Status)
	}

	// Now the finder can claim it.
	req, _ = authRequest("POST", itemURL+"/claim", finder, nil)
	doJSON(t, req, http.StatusOK, &event)
	item = event.Item
	if item.Status != model.StatusClaimed || item.ClaimedBy == nil {
		t.Fatalf("claim not recorded: status=%q claimed_by=%v", item.Status, item.ClaimedBy)
	}

	// The claimer may not remove the claim, only the owner or an admin.
	req, _ = authRequest("POST", itemURL+"/remove_claim", finder, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	req, _ = authRequest("POST", itemURL+"/remove_claim", owner, nil)
	item = model.LostFoundItem{}
	doJSON(t, req, http.StatusOK, &item)
	if item.Status != model.StatusFound || item.ClaimedBy != nil {
		t.Fatalf("claim not reverted: status=%q claimed_by=%v", item.Status, item.ClaimedBy)
	}

	// Removing the found tag twice reports a conflict the second time.
	req, _ = authRequest("POST", itemURL+"/remove_found", owner, nil)
	item = model.LostFoundItem{}
	doJSON(t, req, http.StatusOK, &item)
	if item.FoundBy != nil {
		t.Error("found tag not cleared")
	}
	req, _ = authRequest("POST", itemURL+"/remove_found", owner, nil)
	doJSON(t, req, http.StatusConflict, nil)
}

// recordingNotifier captures sent messages, optionally failing delivery.
type recordingNotifier struct {
	sent []mail.Message
	fail bool
}

func (n *recordingNotifier) Send(msg mail.Message) error {
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func TestLostFoundEventNotifications(t *testing.T) {
	rec := &recordingNotifier{}
	server, database := setupTestServerWith(t, rec)
	owner := newConfirmedUser(t, server, database, "owner")
	finder := newConfirmedUser(t, server, database, "finder")

	report := func(name string) int64 {
		req, _ := authRequest("POST", server.URL+"/api/lost", owner, map[string]any{
			"name":         name,
			"contact_info": "0123456789",
		})
		var item model.LostFoundItem
		doJSON(t, req, http.StatusCreated, &item)
		return item.ID
	}

	itemURL := server.URL + "/api/lost/" + itoa(report("Backpack"))
	var event struct {
		Item       model.LostFoundItem `json:"item"`
		OwnerEmail string              `json:"owner_email"`
	}

	// Marking the item found emails the owner.
	req, _ := authRequest("POST", itemURL+"/found", finder, nil)
	doJSON(t, req, http.StatusOK, &event)
	if len(rec.sent) != 1 || rec.sent[0].To != "owner@example.com" {
		t.Fatalf("expected one mark-found notification to the owner, got %+v", rec.sent)
	}
	if event.OwnerEmail != "" {
		t.Errorf("owner email exposed despite successful delivery: %q", event.OwnerEmail)
	}

	// So does a claim, once the owner sets the status to found.
	req, _ = authRequest("PUT", itemURL, owner, map[string]any{
		"name":         "Backpack",
		"status":       model.StatusFound,
		"contact_info": "0123456789",
	})
	doJSON(t, req, http.StatusOK, nil)
	req, _ = authRequest("POST", itemURL+"/claim", finder, nil)
	doJSON(t, req, http.StatusOK, &event)
	if len(rec.sent) != 2 || rec.sent[1].To != "owner@example.com" {
		t.Fatalf("expected a claim notification to the owner, got %+v", rec.sent)
	}

	// When delivery fails, the response carries the owner's address so the
	// finder can reach them directly.
	rec.fail = true
	itemURL = server.URL + "/api/lost/" + itoa(report("Scarf"))
	req, _ = authRequest("POST", itemURL+"/found", finder, nil)
	doJSON(t, req, http.StatusOK, &event)
	if event.OwnerEmail != "owner@example.com" {
		t.Errorf("expected owner email in response after failed delivery, got %q", event.OwnerEmail)
	}
	if event.Item.FoundBy == nil {
		t.Error("failed delivery must not block the mark-found event")
	}
}

func TestMarketplaceBuyFlow(t *testing.T) {
	server, database := setupTestServer(t)
	seller := newConfirmedUser(t, server, database, "seller")
	buyer := newConfirmedUser(t, server, database, "buyer")

	req, _ := authRequest("POST", server.URL+"/api/market", seller, map[string]any{
		"name":         "Desk Lamp",
		"price":        12.50,
		"category":     "Furniture",
		"condition":    "good",
		"contact_info": "0123456789",
	})
	var item model.MarketplaceItem
	doJSON(t, req, http.StatusCreated, &item)
	if item.Status != model.StatusAvailable {
		t.Fatalf("expected status available, got %q", item.Status)
	}
	itemURL := server.URL + "/api/market/" + itoa(item.ID)

	// Sellers cannot buy their own items.
	req, _ = authRequest("POST", itemURL+"/buy", seller, nil)
	doJSON(t, req, http.StatusForbidden, nil)

	// A successful buy releases the seller's contact details.
	req, _ = authRequest("POST", itemURL+"/buy", buyer, nil)
	var buyResp struct {
		Item   model.MarketplaceItem `json:"item"`
		Seller map[string]string     `json:"seller"`
	}
	doJSON(t, req, http.StatusOK, &buyResp)
	if buyResp.Item.Status != model.StatusSold {
		t.Errorf("expected status sold, got %q", buyResp.Item.Status)
	}
	if buyResp.Seller["username"] != "seller" || buyResp.Seller["contact"] != "0123456789" {
		t.Errorf("unexpected seller details: %v", buyResp.Seller)
	}

	// The item is no longer available.
	req, _ = authRequest("POST", itemURL+"/buy", buyer, nil)
	doJSON(t, req, http.StatusConflict, nil)

	req, _ = authRequest("GET", itemURL, buyer, nil)
	doJSON(t, req, http.StatusOK, &item)
	if item.Status != model.StatusSold {
		t.Errorf("expected status sold, got %q", item.Status)
	}
}

func TestGuestCannotCreateItems(t *testing.T) {
	server, database := setupTestServer(t)

	guest, err := store.GetUserByUsername(context.Background(), database, model.GuestUsername)
	if err != nil || guest == nil {
		t.Fatalf("seeded guest missing: %v", err)
	}
	token, err := auth.GenerateToken(testJWTSecret, guest.ID, guest.Username, guest.Role, guest.IsAdmin, auth.SessionExpiry)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req, _ := authRequest("POST", server.URL+"/api/lost", token, map[string]any{
		"name":         "Keys",
		"contact_info": "0123456789",
	})
	doJSON(t, req, http.StatusForbidden, nil)

	req, _ = authRequest("POST", server.URL+"/api/market", token, map[string]any{
		"name":         "Chair",
		"contact_info": "0123456789",
	})
	doJSON(t, req, http.StatusForbidden, nil)

	// Guests can still browse.
	req, _ = authRequest("GET", server.URL+"/api/lost", token, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func TestFeedbackFlow(t *testing.T) {
	server, database := setupTestServer(t)
	owner := newConfirmedUser(t, server, database, "owner")
	commenter := newConfirmedUser(t, server, database, "commenter")

	req, _ := authRequest("POST", server.URL+"/api/lost", owner, map[string]any{
		"name":         "Umbrella",
		"contact_info": "0123456789",
	})
	var item model.LostFoundItem
	doJSON(t, req, http.StatusCreated, &item)

	req, _ = authRequest("POST", server.URL+"/api/lost/"+itoa(item.ID)+"/feedback", commenter, map[string]string{
		"comment": "Saw one like this near the gym.",
	})
	doJSON(t, req, http.StatusCreated, nil)

	req, _ = authRequest("GET", server.URL+"/api/lost/"+itoa(item.ID)+"/feedback", owner, nil)
	var feedback []model.Feedback
	doJSON(t, req, http.StatusOK, &feedback)
	if len(feedback) != 1 || feedback[0].Username != "commenter" {
		t.Errorf("unexpected feedback: %+v", feedback)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/lost")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
}

func TestValidationErrors(t *testing.T) {
	server, database := setupTestServer(t)
	token := newConfirmedUser(t, server, database, "reporter")

	// Bad contact number.
	req, _ := authRequest("POST", server.URL+"/api/lost", token, map[string]any{
		"name":         "Phone",
		"contact_info": "not-a-number",
	})
	doJSON(t, req, http.StatusBadRequest, nil)

	// Negative price.
	req, _ = authRequest("POST", server.URL+"/api/market", token, map[string]any{
		"name":         "Book",
		"price":        -5,
		"contact_info": "0123456789",
	})
	doJSON(t, req, http.StatusBadRequest, nil)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
