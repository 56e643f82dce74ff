package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "opssight/internal/api/context"
	"opssight/internal/engine/sync"
	"opssight/internal/pkg/errors"
	"opssight/internal/platform/audit"
	"opssight/internal/platform/repositories"
)

type UserHandler struct {
	userRepo *repositories.UserRepository
	syncSvc  *sync.Service
	audit    *audit.Logger
}

func NewUserHandler(userRepo *repositories.UserRepository, syncSvc *sync.Service, auditLog *audit.Logger) *UserHandler {
	return &UserHandler{userRepo: userRepo, syncSvc: syncSvc, audit: auditLog}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userRepo.List(limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	user, err := h.userRepo.GetByID(params.ByName("user_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

var allowedRoles = map[string]bool{"member": true, "admin": true, "owner": true}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	userID := params.ByName("user_id")

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !allowedRoles[req.Role] {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	if err := h.userRepo.UpdateRole(userID, req.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update role", nil)
		return
	}
	h.audit.Log(r.Context(), "user.role_updated", "user", userID, map[string]interface{}{"role": req.Role})

	user.Role = req.Role
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	userID := params.ByName("user_id")

	if err := h.userRepo.Delete(userID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete user", nil)
		return
	}
	h.audit.Log(r.Context(), "user.deleted", "user", userID, nil)

	w.WriteHeader(http.StatusNoContent)
}

// Sync triggers an on-demand GitHub profile re-sync for a user.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	userID := params.ByName("user_id")

	if err := h.syncSvc.SyncUser(r.Context(), userID); err != nil {
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeInternal, "Sync failed", map[string]interface{}{"reason": err.Error()})
		return
	}
	h.audit.Log(r.Context(), "user.synced", "user", userID, nil)

	user, err := h.userRepo.GetByID(userID)
	if err != nil || user == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
