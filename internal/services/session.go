package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/database"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionKeyPrefix is the Redis key prefix for live token ids (jti)
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->jti mapping
	UserSessionKeyPrefix = "user_session:"

	tokenIssuer = "ridit"
)

var (
	jwtSecret       = []byte("your-secret-key-change-in-production")
	UserSessionTTL  = 24 * time.Hour
	AdminSessionTTL = 8 * time.Hour
)

// ConfigureSessions sets the signing secret and lifetimes. Called once from main.
func ConfigureSessions(secret string, userTTL, adminTTL time.Duration) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if userTTL > 0 {
		UserSessionTTL = userTTL
	}
	if adminTTL > 0 {
		AdminSessionTTL = adminTTL
	}
}

// Claims is the JWT payload. Subject is the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func signToken(userID uuid.UUID, role models.Role, jti string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// parseToken checks signature, algorithm, issuer and expiry. It does not
// consult Redis.
func parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func sessionTTL(role models.Role) time.Duration {
	if role == models.RoleAdmin {
		return AdminSessionTTL
	}
	return UserSessionTTL
}

// CreateSession issues a token for a user and registers its jti in Redis.
// Any previous session of the same user is revoked first.
func CreateSession(ctx context.Context, userID uuid.UUID, role models.Role) (string, error) {
	_ = InvalidateUserSessions(ctx, userID)

	jti := uuid.NewString()
	ttl := sessionTTL(role)

	token, err := signToken(userID, role, jti, ttl, time.Now())
	if err != nil {
		return "", err
	}

	if err := database.RedisClient.Set(ctx, SessionKeyPrefix+jti, userID.String(), ttl).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, UserSessionKeyPrefix+userID.String(), jti, ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateSession returns the claims of a live token.
func ValidateSession(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}
	claims, err := parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	owner, err := database.RedisClient.Get(ctx, SessionKeyPrefix+claims.ID).Result()
	if err != nil || owner != claims.Subject {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// InvalidateSession revokes the token's jti.
func InvalidateSession(ctx context.Context, tokenString string) error {
	claims, err := parseToken(tokenString)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return nil
		}
		return err
	}

	sessionKey := SessionKeyPrefix + claims.ID
	userSessionKey := UserSessionKeyPrefix + claims.Subject

	// Only drop the mapping if it still points at this token
	if current, err := database.RedisClient.Get(ctx, userSessionKey).Result(); err == nil && current == claims.ID {
		database.RedisClient.Del(ctx, userSessionKey)
	}
	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions revokes the user's live session, if any
// (used on re-login, role change and account deletion).
func InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error {
	userSessionKey := UserSessionKeyPrefix + userID.String()

	jti, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && jti != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+jti)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
