package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/pkg/utils"
	"github.com/google/uuid"
)

// EnsureAdminAccount creates the operator account from ADMIN_EMAIL and
// ADMIN_PASSWORD, or resets its password when it already exists.
func EnsureAdminAccount(ctx context.Context, email, password string) error {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		log.Println("⚠️  WARNING: ADMIN_EMAIL/ADMIN_PASSWORD not set, admin login disabled")
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		_, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE users SET role = 'admin', password_hash = $2, updated_at = NOW() WHERE id = $1
		`, existing.ID, hash)
		return err
	case errors.Is(err, ErrUserNotFound):
		u := &models.User{
			Name:         "Administrator",
			Email:        email,
			Role:         models.RoleAdmin,
			PasswordHash: hash,
			AuthProvider: AuthProviderPassword,
		}
		if err := insertUser(ctx, u); err != nil {
			return err
		}
		log.Printf("✅ Admin account created for %s", email)
		return nil
	default:
		return err
	}
}

// AuthenticateAdmin checks admin credentials.
func AuthenticateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Role != models.RoleAdmin {
		return nil, ErrInvalidCredentials
	}
	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateAdminSession issues an admin-scoped token (shorter lifetime).
func CreateAdminSession(ctx context.Context, adminID uuid.UUID) (string, error) {
	return CreateSession(ctx, adminID, models.RoleAdmin)
}

// ValidateAdminSession is ValidateSession restricted to admin tokens.
func ValidateAdminSession(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := ValidateSession(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return claims, nil
}
