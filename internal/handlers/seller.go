package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// AddItem handles POST /seller/items/add?seller_id=
func AddItem(w http.ResponseWriter, r *http.Request) {
	sellerID := r.URL.Query().Get("seller_id")
	if sellerID == "" {
		sellerID = callerID(r)
	}
	if !requireSelf(w, r, sellerID) {
		return
	}
	var draft models.ItemDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	item, err := services.CreateItem(r.Context(), sellerID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ListSellerItems handles GET /seller/items/{id}?status_filter=
func ListSellerItems(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "id")
	if !requireSelf(w, r, sellerID) {
		return
	}
	items, err := services.ListSellerItems(r.Context(), sellerID, models.ItemStatus(r.URL.Query().Get("status_filter")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ItemList{Items: items, TotalCount: len(items)})
}

// ItemStatus handles GET /seller/items/{id}/status
func ItemStatus(w http.ResponseWriter, r *http.Request) {
	view, err := services.GetItemStatus(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ItemHistory handles GET /items/{itemId}/history?before=&limit=
// Visible to the seller and to the collector holding the item.
func ItemHistory(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	item, err := services.GetItem(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	caller := callerID(r)
	if item.SellerID != caller && !item.AcceptedBy(caller) {
		writeError(w, services.ErrForbidden)
		return
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "before must be RFC3339")
			return
		}
		before = &t
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	events, hasMore, err := services.LoadItemEvents(r.Context(), itemID, before, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ItemHistory{Events: events, HasMore: hasMore})
}

// CancelItem handles PUT /seller/items/{id}/cancel
func CancelItem(w http.ResponseWriter, r *http.Request) {
	item, err := services.CancelItem(r.Context(), chi.URLParam(r, "id"), callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /seller/items/{id}
func DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	if err := services.DeleteItem(r.Context(), itemID, callerID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item deleted successfully", ID: itemID})
}

// SetLocation handles PUT /seller/location/{sellerId} and
// PUT /collector/location/{collectorId}.
func SetLocation(role models.Role, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := chi.URLParam(r, param)
		if !requireSelf(w, r, ownerID) {
			return
		}
		var loc models.Location
		if !decodeJSON(w, r, &loc) {
			return
		}
		saved, err := services.SaveLocation(r.Context(), ownerID, role, loc)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

// GetLocation handles GET /seller/location/{sellerId} and
// GET /collector/location/{collectorId}.
func GetLocation(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := chi.URLParam(r, param)
		if !requireSelf(w, r, ownerID) {
			return
		}
		loc, err := services.GetLocation(r.Context(), ownerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}
