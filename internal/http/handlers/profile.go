package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/padharoindia/backend/internal/http/respond"
	"github.com/padharoindia/backend/internal/middleware"
	"github.com/padharoindia/backend/internal/models/dto"
)

// Profile handles GET /api/user/profile for an authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile", user)
}

// UpdateProfile handles PUT /api/user/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", user)
}

// BusinessStatus handles GET /api/business/status. It sits behind the full
// gate chain; reaching it at all proves the caller is a verified business
// account of an allowed type.
func (h *AuthHandler) BusinessStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusForbidden, "insufficient privileges")
		return
	}
	respond.JSON(w, http.StatusOK, "business account active", map[string]any{
		"id":           user.ID,
		"businessType": user.BusinessType,
	})
}
