package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tdk-bwcb/campus-lost-found-market/internal/model"
)

// IsConstraintError reports whether err is a uniqueness violation, used to
// surface duplicate username/email as a form-level warning.
func IsConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser creates a new user. Admins are the only role with the admin
// flag; everyone starts unconfirmed.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, email, role string) (*model.User, error) {
	isAdmin := role == model.RoleAdmin
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, role, is_admin) VALUES (?, ?, ?, ?, ?)`,
		username, passwordHash, email, role, isAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	return getUserWhere(ctx, db, "id = ?", id)
}

// GetUserByUsername returns a user by username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	return getUserWhere(ctx, db, "username = ?", username)
}

// GetUserByEmail returns a user by email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	return getUserWhere(ctx, db, "email = ?", email)
}

func getUserWhere(ctx context.Context, db *sql.DB, where string, arg any) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, role, is_admin, is_confirmed, created_at
		 FROM users WHERE `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &u.IsAdmin, &u.IsConfirmed, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// ConfirmUser marks a user's email as confirmed.
func ConfirmUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET is_confirmed = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("confirming user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}
