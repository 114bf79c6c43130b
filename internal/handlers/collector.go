package handlers

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/ridit-backend/internal/models"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/AnshRaj112/ridit-backend/pkg/pricing"
	"github.com/go-chi/chi/v5"
)

// collectorParam resolves ?collector_id=, defaulting to the caller.
func collectorParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("collector_id")
	if id == "" {
		id = callerID(r)
	}
	return id, requireSelf(w, r, id)
}

// AvailableItems handles GET /collector/items?collector_id=&category=
func AvailableItems(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := collectorParam(w, r)
	if !ok {
		return
	}
	res, err := services.ListAvailableItems(r.Context(), collectorID, pricing.Category(r.URL.Query().Get("category")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// MyAcceptedItems handles GET /collector/my-accepted?collector_id=
func MyAcceptedItems(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := collectorParam(w, r)
	if !ok {
		return
	}
	items, err := services.ListAcceptedItems(r.Context(), collectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ItemList{Items: items, TotalCount: len(items)})
}

// AcceptItem handles POST /collector/items/{itemId}/accept?collector_id=
func AcceptItem(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := collectorParam(w, r)
	if !ok {
		return
	}
	item, err := services.AcceptItem(r.Context(), chi.URLParam(r, "itemId"), collectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CompleteCollection handles
// POST /collector/items/{itemId}/complete?collector_id=&actual_weight=
func CompleteCollection(w http.ResponseWriter, r *http.Request) {
	collectorID, ok := collectorParam(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("actual_weight")
	weight, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, &services.ValidationError{
			Message: "invalid weight",
			Fields:  map[string]string{"actual_weight": "actual_weight must be a number"},
		})
		return
	}
	item, err := services.CompleteCollection(r.Context(), chi.URLParam(r, "itemId"), collectorID, weight)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// MySubscription handles GET /collector/subscription/{collectorId}
func MySubscription(w http.ResponseWriter, r *http.Request) {
	collectorID := chi.URLParam(r, "collectorId")
	if !requireSelf(w, r, collectorID) {
		return
	}
	sub, err := services.GetSubscription(r.Context(), collectorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
