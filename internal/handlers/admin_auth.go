package handlers

import (
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/google/uuid"
)

// AdminLogin handles POST /admin/login
func AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := services.AuthenticateAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := uuid.Parse(admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := services.CreateAdminSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{
		ID:      admin.ID,
		Name:    admin.Name,
		Email:   admin.Email,
		Role:    admin.Role,
		Token:   token,
		Message: "Admin signed in successfully",
	})
}

// AdminLogout handles POST /admin/logout
func AdminLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if _, err := services.ValidateAdminSession(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	if err := services.InvalidateSession(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
