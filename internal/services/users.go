package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	AuthProviderPassword = "password"
	AuthProviderGoogle   = "google"
)

const userColumns = `id, created_at, updated_at, name, email, phone, role, password_hash,
	auth_provider, referral_code, referred_by, total_collections`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var id uuid.UUID
	err := row.Scan(&id, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Phone, &u.Role,
		&u.PasswordHash, &u.AuthProvider, &u.ReferralCode, &u.ReferredBy, &u.TotalCollections)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.ID = id.String()
	return &u, nil
}

// uniqueViolation maps Postgres unique errors on users to sentinels.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "phone"):
			return ErrPhoneTaken
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrEmailTaken
		}
	}
	return err
}

func insertUser(ctx context.Context, u *models.User) error {
	id := uuid.New()
	now := time.Now().UTC()

	// Referral codes are random; retry on the rare collision
	for attempt := 0; attempt < 3; attempt++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return err
		}
		_, err = database.PostgresDB.ExecContext(ctx, `
			INSERT INTO users (id, created_at, updated_at, name, email, phone, role, password_hash,
				auth_provider, referral_code, referred_by)
			VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, id, now, u.Name, u.Email, u.Phone, u.Role, u.PasswordHash, u.AuthProvider, code, u.ReferredBy)
		if err == nil {
			u.ID = id.String()
			u.CreatedAt = now
			u.UpdatedAt = now
			u.ReferralCode = code
			return nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "referral_code") {
			continue
		}
		return uniqueViolation(err)
	}
	return fmt.Errorf("could not allocate a referral code")
}

// RegisterUser creates a seller or collector with a password.
func RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Phone = utils.NormalizePhone(req.Phone)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if errs := req.Validate(); errs.Any() {
		return nil, &ValidationError{Message: "invalid registration", Fields: errs}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
		AuthProvider: AuthProviderPassword,
		ReferredBy:   strings.TrimSpace(req.ReferredBy),
	}
	if err := insertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// AdminCreateUser creates an account of any role with a password. New
// collectors start with an inactive subscription.
func AdminCreateUser(ctx context.Context, req models.AdminCreateUserRequest) (*models.User, error) {
	req.Phone = utils.NormalizePhone(req.Phone)
	req.Email = utils.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if errs := req.Validate(); errs.Any() {
		return nil, &ValidationError{Message: "invalid user", Fields: errs}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
		AuthProvider: AuthProviderPassword,
	}
	if err := insertUser(ctx, u); err != nil {
		return nil, err
	}

	if u.Role == models.RoleCollector {
		_, err := database.PostgresDB.ExecContext(ctx, `
			INSERT INTO subscriptions (collector_id, plan_type, status, created_at)
			VALUES ($1, $2, 'inactive', NOW())
			ON CONFLICT (collector_id) DO NOTHING
		`, u.ID, models.PlanNone)
		if err != nil {
			if _, derr := database.PostgresDB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, u.ID); derr != nil {
				log.Printf("⚠️  could not roll back collector %s: %v", u.ID, derr)
			}
			return nil, fmt.Errorf("create subscription: %w", err)
		}
	}
	log.Printf("👤 admin created %s %s", u.Role, u.ID)
	return u, nil
}

// AuthenticateUser logs a seller or collector in by phone or email.
func AuthenticateUser(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var u *models.User
	var err error
	if utils.LooksLikeEmail(identifier) {
		u, err = GetUserByEmail(ctx, identifier)
	} else {
		u, err = scanUser(database.PostgresDB.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE phone = $1`, utils.NormalizePhone(identifier)))
	}
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FederatedLogin finds an existing account by the provider's email.
func FederatedLogin(ctx context.Context, req models.FederatedAuthRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	u, err := GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Role == models.RoleAdmin {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FederatedRegister creates an account for a provider identity, or returns
// the existing one when the email is already known.
func FederatedRegister(ctx context.Context, req models.FederatedAuthRequest) (*models.User, bool, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" {
		return nil, false, invalid("email", "email is required")
	}
	if req.Role != models.RoleSeller && req.Role != models.RoleCollector {
		return nil, false, invalid("role", "role must be seller or collector")
	}

	if existing, err := GetUserByEmail(ctx, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		Role:         req.Role,
		AuthProvider: AuthProviderGoogle,
	}
	if err := insertUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func GetUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return scanUser(database.PostgresDB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(database.PostgresDB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, utils.NormalizeEmail(email)))
}

// UpdateProfile applies the self-editable fields.
func UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	u, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return u, nil
	}

	errs := models.FieldErrors{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			errs.Add("name", "name cannot be empty")
		}
		u.Name = name
	}
	if upd.Phone != nil {
		phone := utils.NormalizePhone(*upd.Phone)
		if !models.ValidPhone(phone) {
			errs.Add("phone", "phone must be at least 10 digits")
		}
		u.Phone = phone
	}
	if upd.ReferredBy != nil {
		u.ReferredBy = strings.TrimSpace(*upd.ReferredBy)
	}
	if errs.Any() {
		return nil, &ValidationError{Message: "invalid profile", Fields: errs}
	}

	return saveUser(ctx, u)
}

func saveUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := database.PostgresDB.QueryRowContext(ctx, `
		UPDATE users SET name = $2, email = $3, phone = $4, referred_by = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, u.ID, u.Name, u.Email, u.Phone, u.ReferredBy)
	updated, err := scanUser(row)
	if err != nil {
		return nil, uniqueViolation(err)
	}
	return updated, nil
}

// ListUsers returns every account, newest first.
func ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := database.PostgresDB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// AdminUpdateUser lets an admin correct name, email and phone.
func AdminUpdateUser(ctx context.Context, userID string, upd models.AdminUserUpdate) (*models.User, error) {
	u, err := GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		u.Email = utils.NormalizeEmail(*upd.Email)
	}
	if upd.Phone != nil {
		u.Phone = utils.NormalizePhone(*upd.Phone)
	}
	return saveUser(ctx, u)
}

// UpdateUserRole changes a user's role and revokes their session so the
// new role takes effect on the next login.
func UpdateUserRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, invalid("role", "role must be seller, collector or admin")
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := scanUser(database.PostgresDB.QueryRowContext(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+userColumns, id, role))
	if err != nil {
		return nil, err
	}
	if database.RedisClient != nil {
		_ = InvalidateUserSessions(ctx, id)
	}
	return u, nil
}

// DeleteUser hard-deletes an account. Items, locations and subscriptions
// cascade; items the user had accepted are released back to pending.
func DeleteUser(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}

	tx, err := database.PostgresDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	released, err := releaseHeldItems(ctx, tx, id)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, ev := range released {
		emitItemEvent(ev)
	}
	if database.RedisClient != nil {
		_ = InvalidateUserSessions(ctx, id)
	}
	return nil
}

// releaseHeldItems moves the collector's accepted items along the
// release edge so other collectors can pick them up.
func releaseHeldItems(ctx context.Context, tx *sql.Tx, collectorID uuid.UUID) ([]models.ItemEvent, error) {
	to, _ := models.ReleaseTarget(models.StatusAccepted)
	rows, err := tx.QueryContext(ctx, `
		UPDATE items SET status = $2, collector_id = NULL, updated_at = NOW()
		WHERE collector_id = $1 AND status = $3
		RETURNING id, seller_id
	`, collectorID, to, models.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("release accepted items: %w", err)
	}
	defer rows.Close()

	var events []models.ItemEvent
	for rows.Next() {
		var itemID, sellerID string
		if err := rows.Scan(&itemID, &sellerID); err != nil {
			return nil, err
		}
		events = append(events, models.ItemEvent{
			ItemID:         itemID,
			Type:           models.EventItemReleased,
			ActorRole:      models.RoleAdmin,
			SellerID:       sellerID,
			PreviousStatus: models.StatusAccepted,
			NextStatus:     to,
		})
	}
	return events, rows.Err()
}
