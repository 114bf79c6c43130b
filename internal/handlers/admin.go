package handlers

import (
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type userList struct {
	Users      []models.User `json:"users"`
	TotalCount int           `json:"total_count"`
}

type subscriptionList struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	TotalCount    int                   `json:"total_count"`
}

// AdminListUsers handles GET /admin/users
func AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := services.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userList{Users: users, TotalCount: len(users)})
}

// AdminCreateUser handles POST /admin/users/create
func AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.AdminCreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := services.AdminCreateUser(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// AdminGetUser handles GET /admin/user/{userId}
func AdminGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := services.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// AdminUpdateUser handles PUT /admin/user/{userId}
func AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd models.AdminUserUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	u, err := services.AdminUpdateUser(r.Context(), chi.URLParam(r, "userId"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// AdminUpdateUserRole handles PUT /admin/user/{userId}/role
func AdminUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req models.RoleUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID == callerID(r) {
		writeDetail(w, http.StatusBadRequest, "Admins cannot change their own role")
		return
	}
	u, err := services.UpdateUserRole(r.Context(), userID, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// AdminDeleteUser handles DELETE /admin/user/{userId}
func AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == callerID(r) {
		writeDetail(w, http.StatusBadRequest, "Admins cannot delete their own account")
		return
	}
	if err := services.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully", ID: userID})
}

// AdminListItems handles GET /admin/items
func AdminListItems(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListAllItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ItemList{Items: items, TotalCount: len(items)})
}

// AdminOverrideWeight handles PUT /admin/item/{itemId}
func AdminOverrideWeight(w http.ResponseWriter, r *http.Request) {
	var req models.WeightOverride
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := services.OverrideItemWeight(r.Context(), chi.URLParam(r, "itemId"), callerID(r), req.ActualWeight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// AdminDeleteItem handles DELETE /admin/item/{itemId}
func AdminDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if err := services.AdminDeleteItem(r.Context(), itemID, callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item deleted successfully", ID: itemID})
}

// AdminListSubscriptions handles GET /admin/subscriptions
func AdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := services.ListSubscriptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionList{Subscriptions: subs, TotalCount: len(subs)})
}

// AdminActivateSubscription handles POST /admin/subscriptions/{collectorId}
func AdminActivateSubscription(w http.ResponseWriter, r *http.Request) {
	var req models.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := services.ActivateSubscription(r.Context(), chi.URLParam(r, "collectorId"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// AdminCancelSubscription handles DELETE /admin/subscriptions/{collectorId}
func AdminCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := services.CancelSubscription(r.Context(), chi.URLParam(r, "collectorId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
