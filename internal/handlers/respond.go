package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail interface{}) {
	writeJSON(w, status, map[string]interface{}{"detail": detail})
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeDetail(w, http.StatusBadRequest, map[string]interface{}{
			"message": verr.Message,
			"fields":  verr.Fields,
		})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidSession):
		writeDetail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotSeller),
		errors.Is(err, services.ErrNotCollector),
		errors.Is(err, services.ErrSubscriptionInactive),
		errors.Is(err, services.ErrOutOfRange):
		writeDetail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrLocationNotSet):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrItemTaken),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrPhoneTaken),
		errors.Is(err, services.ErrEmailTaken):
		writeDetail(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnsupportedImage):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("ERROR: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a size-limited JSON body into dst. It writes the 400
// itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requireSelf rejects the request unless the authenticated caller is id.
func requireSelf(w http.ResponseWriter, r *http.Request, id string) bool {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return false
	}
	if id == "" || claims.Subject != id {
		writeDetail(w, http.StatusForbidden, "You can only access your own data")
		return false
	}
	return true
}

// callerID returns the authenticated user's id.
func callerID(r *http.Request) string {
	if claims := middleware.ClaimsFrom(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

type messageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
