package models

import (
	"strings"
	"time"
)

// Role identifies which portal a user belongs to.
type Role string

const (
	RoleSeller    Role = "seller"
	RoleCollector Role = "collector"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RoleCollector, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"` // never serialised
	AuthProvider string `json:"auth_provider,omitempty"`

	ReferralCode string `json:"referral_code,omitempty"`
	ReferredBy   string `json:"referred_by,omitempty"`

	// Collector stats
	TotalCollections int `json:"total_collections,omitempty"`
}

// RegisterRequest creates a seller or collector account.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	Role       Role   `json:"role"`
	ReferredBy string `json:"referred_by,omitempty"`
}

// LoginRequest authenticates by phone number or email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AdminLoginRequest authenticates the operator account.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FederatedAuthRequest carries the identity returned by the federated provider.
type FederatedAuthRequest struct {
	IDToken string `json:"id_token,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

// AuthResponse is returned by every login/register endpoint.
type AuthResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`
	ReferralCode string `json:"referral_code,omitempty"`
	Token        string `json:"token"`
	Message      string `json:"message,omitempty"`
}

// ProfileUpdate holds the self-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	ReferredBy *string `json:"referred_by,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.ReferredBy == nil
}

// AdminUserUpdate is the admin correction payload for an account.
type AdminUserUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// AdminCreateUserRequest is the admin payload for creating an account of
// any role with a password.
type AdminCreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate checks the admin create payload. Admins sign in by email, so
// an admin account needs one.
func (r AdminCreateUserRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		errs.Add("name", "name is required")
	}
	if !phonePattern.MatchString(r.Phone) {
		errs.Add("phone", "phone must be at least 10 digits")
	}
	if len(r.Password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if !r.Role.Valid() {
		errs.Add("role", "role must be seller, collector or admin")
	}
	if r.Role == RoleAdmin && strings.TrimSpace(r.Email) == "" {
		errs.Add("email", "email is required for admin accounts")
	}
	return errs
}

// RoleUpdate is the admin role change payload.
type RoleUpdate struct {
	Role Role `json:"role"`
}

// Validate checks the registration payload.
func (r RegisterRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if len(r.Name) < 1 {
		errs.Add("name", "name is required")
	}
	if !phonePattern.MatchString(r.Phone) {
		errs.Add("phone", "phone must be at least 10 digits")
	}
	if len(r.Password) < 6 {
		errs.Add("password", "password must be at least 6 characters")
	}
	if r.Role != RoleSeller && r.Role != RoleCollector {
		errs.Add("role", "role must be seller or collector")
	}
	return errs
}
