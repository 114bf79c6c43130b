package handlers

import (
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func issueAuthResponse(w http.ResponseWriter, r *http.Request, status int, u *models.User, msg string) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := services.CreateSession(r.Context(), id, u.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, models.AuthResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		ReferralCode: u.ReferralCode,
		Token:        token,
		Message:      msg,
	})
}

// Register handles POST /auth/register
func Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := services.RegisterUser(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	issueAuthResponse(w, r, http.StatusCreated, u, "Registration successful")
}

// Login handles POST /auth/login (phone or email + password)
func Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := services.AuthenticateUser(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	issueAuthResponse(w, r, http.StatusOK, u, "Login successful")
}

// GoogleLogin handles POST /auth/google-login
func GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.FederatedAuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := services.FederatedLogin(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	issueAuthResponse(w, r, http.StatusOK, u, "Login successful")
}

// GoogleRegister handles POST /auth/google-register
func GoogleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.FederatedAuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, created, err := services.FederatedRegister(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if created {
		issueAuthResponse(w, r, http.StatusCreated, u, "Registration successful")
		return
	}
	issueAuthResponse(w, r, http.StatusOK, u, "Account already exists, logged in")
}

// Logout handles POST /auth/logout; revokes the presented token.
func Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := services.InvalidateSession(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// GetProfile handles GET /auth/profile/{userId}
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !requireSelf(w, r, userID) {
		return
	}
	u, err := services.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /auth/profile/{userId}
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !requireSelf(w, r, userID) {
		return
	}
	var upd models.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	u, err := services.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
