package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "opssight/internal/api/context"
	"opssight/internal/pkg/errors"
	"opssight/internal/pkg/qr"
	"opssight/internal/platform/audit"
	"opssight/internal/platform/auth"
	"opssight/internal/platform/models"
	"opssight/internal/platform/repositories"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

type TeamHandler struct {
	teamRepo   *repositories.TeamRepository
	inviteRepo *repositories.TeamInviteRepository
	audit      *audit.Logger
	appBaseURL string
}

func NewTeamHandler(teamRepo *repositories.TeamRepository, inviteRepo *repositories.TeamInviteRepository, auditLog *audit.Logger, appBaseURL string) *TeamHandler {
	return &TeamHandler{teamRepo: teamRepo, inviteRepo: inviteRepo, audit: auditLog, appBaseURL: appBaseURL}
}

type CreateTeamRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !slugPattern.MatchString(req.Slug) || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid slug or name", nil)
		return
	}

	existing, err := h.teamRepo.GetBySlug(req.Slug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Team slug already taken", nil)
		return
	}

	team := &models.Team{
		ID:          "team_" + uuid.NewString(),
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   claims.UserID,
		CreatedAt:   time.Now().Unix(),
		UpdatedAt:   time.Now().Unix(),
	}
	if err := h.teamRepo.Create(team); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create team", nil)
		return
	}
	if err := h.teamRepo.AddMember(team.ID, claims.UserID, "maintainer"); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add creator as member", nil)
		return
	}
	h.audit.Log(r.Context(), "team.created", "team", team.ID, map[string]interface{}{"slug": team.Slug})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamRepo.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(teams)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	team, err := h.teamRepo.GetByID(params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	team, err := h.teamRepo.GetByID(params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name != "" {
		team.Name = req.Name
	}
	if req.Description != "" {
		team.Description = req.Description
	}

	if err := h.teamRepo.Update(team); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update team", nil)
		return
	}
	h.audit.Log(r.Context(), "team.updated", "team", team.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	teamID := params.ByName("team_id")

	if err := h.teamRepo.Delete(teamID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete team", nil)
		return
	}
	h.audit.Log(r.Context(), "team.deleted", "team", teamID, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	members, err := h.teamRepo.ListMembers(params.ByName("team_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	teamID := params.ByName("team_id")

	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Role != "maintainer" {
		req.Role = "member"
	}

	if err := h.teamRepo.AddMember(teamID, req.UserID, req.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add member", nil)
		return
	}
	h.audit.Log(r.Context(), "team.member_added", "team", teamID, map[string]interface{}{"user_id": req.UserID, "role": req.Role})
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	teamID := params.ByName("team_id")
	userID := params.ByName("user_id")

	if err := h.teamRepo.RemoveMember(teamID, userID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to remove member", nil)
		return
	}
	h.audit.Log(r.Context(), "team.member_removed", "team", teamID, map[string]interface{}{"user_id": userID})
	w.WriteHeader(http.StatusNoContent)
}

type CreateInviteRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	MaxUses int    `json:"max_uses"`
	TTLDays int    `json:"ttl_days"`
}

func (h *TeamHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	teamID := params.ByName("team_id")

	team, err := h.teamRepo.GetByID(teamID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if team == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Team not found", nil)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Role != "maintainer" {
		req.Role = "member"
	}
	if req.MaxUses <= 0 {
		req.MaxUses = 1
	}
	if req.TTLDays <= 0 {
		req.TTLDays = 7
	}

	invite := &models.TeamInvite{
		ID:        "inv_" + uuid.NewString(),
		TeamID:    teamID,
		Code:      uuid.NewString(),
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: claims.UserID,
		Status:    "pending",
		MaxUses:   req.MaxUses,
		ExpiresAt: time.Now().AddDate(0, 0, req.TTLDays).Unix(),
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	if err := h.inviteRepo.Create(invite); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create invite", nil)
		return
	}
	h.audit.Log(r.Context(), "team.invite_created", "team", teamID, map[string]interface{}{"invite_id": invite.ID})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(invite)
}

// InviteQRCode renders the invite signup URL as a PNG for onboarding screens.
func (h *TeamHandler) InviteQRCode(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	code := params.ByName("code")

	invite, err := h.inviteRepo.GetByCode(code)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if invite == nil || invite.Status != "pending" {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Invite not found", nil)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	signupURL := h.appBaseURL + "/signup?invite=" + invite.Code
	png, err := qr.GeneratePNG(signupURL, size)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
