package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/auth"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/media"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

// Server holds the API handler dependencies.
type Server struct {
	DB        *sql.DB
	JWTSecret string
	Media     *media.Store
	Notifier  mail.Notifier
	BaseURL   string
}

// Register handles POST /api/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, req.Username, string(hash), req.Email, model.RoleStudent)
	if err != nil {
		if store.IsConstraintError(err) {
			jsonError(w, http.StatusConflict, "username or email already exists")
			return
		}
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	confirmToken, err := auth.GenerateConfirmToken(s.JWTSecret, req.Email)
	if err != nil {
		slog.Error("failed to generate confirmation token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	confirmURL := s.BaseURL + "/auth/confirm/" + confirmToken
	if err := s.Notifier.Send(mail.Confirmation(req.Email, confirmURL)); err != nil {
		slog.Warn("failed to send confirmation email", "error", err)
	}

	jsonResponse(w, http.StatusCreated, user)
}

// Confirm handles GET /api/auth/confirm/{token}.
func (s *Server) Confirm(w http.ResponseWriter, r *http.Request) {
	email, err := auth.ValidateConfirmToken(s.JWTSecret, r.PathValue("token"))
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid or expired confirmation token")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if !user.IsConfirmed {
		if err := store.ConfirmUser(r.Context(), s.DB, user.ID); err != nil {
			slog.Error("failed to confirm user", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, req.Username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if !user.IsConfirmed {
		jsonError(w, http.StatusForbidden, "email not confirmed")
		return
	}

	expiry := auth.SessionExpiry
	if req.Remember {
		expiry = auth.RememberExpiry
	}
	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role, user.IsAdmin, expiry)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"token": token})
}

// Me handles GET /api/auth/me.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Categories handles GET /api/categories. An optional domain query parameter
// filters to one domain.
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain != "" && !model.ValidDomain(domain) {
		jsonError(w, http.StatusBadRequest, "unknown domain")
		return
	}

	categories, err := store.ListCategories(r.Context(), s.DB, domain)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	jsonResponse(w, http.StatusOK, categories)
}
