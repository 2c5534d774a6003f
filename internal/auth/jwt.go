package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the session JWT claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Session lifetimes. RememberExpiry applies when the user checks
// "remember me" at login.
const (
	SessionExpiry  = 24 * time.Hour
	RememberExpiry = 7 * 24 * time.Hour
)

// ConfirmExpiry is the lifetime of an email-confirmation token.
const ConfirmExpiry = time.Hour

// confirmSubjectPrefix tags confirmation tokens so a session token can never
// be replayed as a confirmation link or vice versa.
const confirmSubjectPrefix = "email-confirm:"

// GenerateToken creates a session JWT for a user with a unique JTI.
func GenerateToken(secret string, userID int64, username, role string, isAdmin bool, expiry time.Duration) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a session JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, hmacKeyFunc(secret))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject != "" {
		return nil, fmt.Errorf("not a session token")
	}

	return claims, nil
}

// GenerateConfirmToken creates a time-boxed signed token for an email
// confirmation link. Expires after ConfirmExpiry.
func GenerateConfirmToken(secret, email string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   confirmSubjectPrefix + email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ConfirmExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing confirmation token: %w", err)
	}
	return signed, nil
}

// ValidateConfirmToken checks a confirmation token and returns the email it
// was issued for.
func ValidateConfirmToken(secret, tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, hmacKeyFunc(secret))
	if err != nil {
		return "", fmt.Errorf("parsing confirmation token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid confirmation token")
	}

	if len(claims.Subject) <= len(confirmSubjectPrefix) ||
		claims.Subject[:len(confirmSubjectPrefix)] != confirmSubjectPrefix {
		return "", fmt.Errorf("not a confirmation token")
	}
	return claims.Subject[len(confirmSubjectPrefix):], nil
}

func hmacKeyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
