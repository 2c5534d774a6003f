package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/auth"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/lifecycle"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/mail"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
	"github.com/tdk-bwcb/campus-lost-found-market/internal/store"
)

const rateLimitCookie = "rate_limit"
const registerCooldown = 60 * time.Second

// LoginPage handles GET /auth/login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign In", Flash: PopFlash(w, r)})
}

// LoginSubmit handles POST /auth/login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	remember := r.FormValue("remember") != ""

	fail := func(message string) {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign In",
			Flash: &Flash{Level: "danger", Message: message},
		})
	}

	if username == "" || password == "" {
		fail("Enter a username and password.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil || user == nil {
		fail("Invalid username or password.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		fail("Invalid username or password.")
		return
	}

	// Email confirmation gates login for everyone but the guest account.
	if !user.IsConfirmed {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Sign In",
			Flash: &Flash{Level: "warning", Message: "Please confirm your email before logging in."},
		})
		return
	}

	expiry := auth.SessionExpiry
	if remember {
		expiry = auth.RememberExpiry
	}
	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role, user.IsAdmin, expiry)
	if err != nil {
		fail("Login failed, please try again.")
		return
	}

	setAuthCookie(w, token, expiry)
	slog.Info("user logged in", "user", user.Username, "remember", remember)
	http.Redirect(w, r, "/lost/", http.StatusSeeOther)
}

// GuestLogin handles GET /auth/guest: signs in the shared demo account.
func (s *Server) GuestLogin(w http.ResponseWriter, r *http.Request) {
	guest, err := store.GetUserByUsername(r.Context(), s.DB, model.GuestUsername)
	if err != nil || guest == nil {
		SetFlash(w, "warning", "Guest account is not available.")
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, guest.ID, guest.Username, guest.Role, guest.IsAdmin, auth.SessionExpiry)
	if err != nil {
		SetFlash(w, "danger", "Login failed, please try again.")
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	setAuthCookie(w, token, auth.SessionExpiry)
	http.Redirect(w, r, "/lost/", http.StatusSeeOther)
}

// RegisterPage handles GET /auth/register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &PageData{Title: "Register", Flash: PopFlash(w, r)})
}

// RegisterSubmit handles POST /auth/register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	// Simple cookie-based rate limit: one registration attempt per minute.
	if cookie, err := r.Cookie(rateLimitCookie); err == nil && cookie.Value != "" {
		if last, err := strconv.ParseInt(cookie.Value, 10, 64); err == nil {
			if time.Since(time.Unix(last, 0)) < registerCooldown {
				SetFlash(w, "warning", "Rate-limited. Wait a minute before trying again.")
				http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
				return
			}
		}
	}

	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	if username == "" || email == "" || password == "" {
		SetFlash(w, "danger", "All fields are required.")
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}
	if password != confirmPassword {
		SetFlash(w, "danger", "Passwords don't match.")
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		SetFlash(w, "danger", "Registration failed, please try again.")
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, username, string(hash), email, model.RoleStudent)
	if err != nil {
		if store.IsConstraintError(err) {
			SetFlash(w, "warning", "Username or email already exists.")
		} else {
			slog.Error("failed to create user", "error", err)
			SetFlash(w, "danger", "Registration failed, please try again.")
		}
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}

	confirmToken, err := auth.GenerateConfirmToken(s.JWTSecret, email)
	if err != nil {
		slog.Error("failed to generate confirmation token", "error", err)
		SetFlash(w, "danger", "Registration failed, please try again.")
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}
	confirmURL := s.BaseURL + "/auth/confirm/" + confirmToken
	slog.Info("confirmation link issued", "user", user.Username, "url", confirmURL)

	if err := s.Notifier.Send(mail.Confirmation(email, confirmURL)); err != nil {
		// Degrade: show the link directly instead of failing registration.
		slog.Warn("failed to send confirmation email", "error", err)
		SetFlash(w, "warning", "Registration successful. Please confirm using this link: "+confirmURL)
	} else {
		SetFlash(w, "info", "A confirmation email has been sent. Please check your inbox.")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     rateLimitCookie,
		Value:    strconv.FormatInt(time.Now().Unix(), 10),
		Path:     "/auth/register",
		MaxAge:   int(registerCooldown.Seconds()),
		HttpOnly: true,
	})
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// ConfirmEmail handles GET /auth/confirm/{token}.
func (s *Server) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	email, err := auth.ValidateConfirmToken(s.JWTSecret, r.PathValue("token"))
	if err != nil {
		SetFlash(w, "danger", "The confirmation link is invalid or has expired.")
		http.Redirect(w, r, "/auth/register", http.StatusSeeOther)
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil || user == nil {
		SetFlash(w, "danger", "User not found.")
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	if user.IsConfirmed {
		SetFlash(w, "info", "Account already confirmed.")
	} else if err := store.ConfirmUser(r.Context(), s.DB, user.ID); err != nil {
		slog.Error("failed to confirm user", "error", err)
		SetFlash(w, "danger", "Confirmation failed, please try again.")
	} else {
		slog.Info("user confirmed email", "user", user.Username)
		SetFlash(w, "success", "Your email has been confirmed! You can now log in.")
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// Logout handles GET /auth/logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	SetFlash(w, "info", "You have been logged out.")
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// ProfilePage handles GET /auth/profile.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		SetFlash(w, "danger", "User not found.")
		http.Redirect(w, r, "/lost/", http.StatusSeeOther)
		return
	}

	lostFound, err := store.ListLostFoundItemsByUser(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list user's lost-and-found items", "error", err)
	}
	market, err := store.ListMarketplaceItemsByUser(r.Context(), s.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list user's marketplace items", "error", err)
	}

	s.Templates.Render(w, "profile.html", &struct {
		PageData
		Account          *model.User
		LostFoundItems   []model.LostFoundItem
		MarketplaceItems []model.MarketplaceItem
	}{
		PageData:         PageData{Title: "Profile", User: claims, Flash: PopFlash(w, r)},
		Account:          user,
		LostFoundItems:   lostFound,
		MarketplaceItems: market,
	})
}

// ProfileSubmit handles POST /auth/profile: changing the account password,
// or deleting one of the user's own items from either domain.
func (s *Server) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	actor := lifecycle.Actor{ID: claims.UserID, Admin: claims.IsAdmin}

	if r.FormValue("current_password") != "" || r.FormValue("new_password") != "" {
		s.changePassword(w, r, claims)
		http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
		return
	}

	if idStr := r.FormValue("lost_found_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err == nil {
			s.deleteLostFoundItem(w, r, actor, id)
		}
		http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
		return
	}

	if idStr := r.FormValue("market_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err == nil {
			s.deleteMarketplaceItem(w, r, actor, id)
		}
		http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
}

// changePassword verifies the current password and stores a new hash. It
// sets the outcome flash; the caller redirects.
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	// The guest account is shared; its password stays as seeded.
	if claims.Role == model.RoleGuest {
		SetFlash(w, "warning", "The guest account password cannot be changed.")
		return
	}

	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirmPassword := r.FormValue("confirm_password")

	if current == "" || newPassword == "" {
		SetFlash(w, "danger", "All password fields are required.")
		return
	}
	if newPassword != confirmPassword {
		SetFlash(w, "danger", "Passwords don't match.")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		SetFlash(w, "danger", "User not found.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		SetFlash(w, "danger", "Current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		SetFlash(w, "danger", "Password change failed, please try again.")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		slog.Error("failed to update password", "user", claims.Username, "error", err)
		SetFlash(w, "danger", "Password change failed, please try again.")
		return
	}

	slog.Info("user changed password", "user", claims.Username)
	SetFlash(w, "success", "Password updated.")
}
