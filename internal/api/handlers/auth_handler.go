package handlers

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"opssight/internal/engine/sync"
	"opssight/internal/pkg/errors"
	"opssight/internal/pkg/validator"
	"opssight/internal/platform/auth"
	"opssight/internal/platform/github"
	"opssight/internal/platform/models"
	"opssight/internal/platform/repositories"
	"opssight/internal/platform/sso"
)

const oauthStateCookie = "opssight_oauth_state"

type AuthHandler struct {
	userRepo   *repositories.UserRepository
	teamRepo   *repositories.TeamRepository
	inviteRepo *repositories.TeamInviteRepository
	tokenSvc   *auth.TokenService
	gh         *github.Client
	saml       *sso.ServiceProvider // nil when SSO is not configured
}

func NewAuthHandler(userRepo *repositories.UserRepository, teamRepo *repositories.TeamRepository, inviteRepo *repositories.TeamInviteRepository, tokenSvc *auth.TokenService, gh *github.Client, saml *sso.ServiceProvider) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		teamRepo:   teamRepo,
		inviteRepo: inviteRepo,
		tokenSvc:   tokenSvc,
		gh:         gh,
		saml:       saml,
	}
}

type SignupRequest struct {
	InviteCode string `json:"invite_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
}

type TokenResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	invite, err := h.inviteRepo.GetByCode(req.InviteCode)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if invite == nil || invite.Status != "pending" || invite.CurrentUses >= invite.MaxUses || invite.ExpiresAt < time.Now().Unix() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid or expired invite code", nil)
		return
	}

	if err := validator.ValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if len(req.Password) < 8 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Password must be at least 8 characters", nil)
		return
	}

	existingUser, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existingUser != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	user := &models.User{
		ID:            "usr_" + uuid.NewString(),
		Email:         req.Email,
		EmailVerified: true, // trusted via invite
		PasswordHash:  string(hashedPassword),
		FullName:      req.FullName,
		Role:          "member",
		CreatedAt:     time.Now().Unix(),
		UpdatedAt:     time.Now().Unix(),
	}

	if err := h.userRepo.Create(user); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}

	if err := h.teamRepo.AddMember(invite.TeamID, user.ID, invite.Role); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add team member", nil)
		return
	}
	if err := h.inviteRepo.IncrementUses(invite.ID); err != nil {
		log.Error().Str("invite_id", invite.ID).Err(err).Msg("failed to update invite usage")
	}

	h.writeTokens(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.DeletedAt != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	h.userRepo.UpdateLastLogin(user.ID, time.Now().Unix())
	h.writeTokens(w, http.StatusOK, user)
}

// GitHubLogin starts the OAuth flow by redirecting to the consent page.
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.gh.AuthCodeURL(state), http.StatusFound)
}

// GitHubCallback completes the OAuth flow: exchanges the code, fetches the
// GitHub profile, finds or creates the local user and issues tokens.
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != state {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "OAuth state mismatch", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing authorization code", nil)
		return
	}

	token, err := h.gh.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oauth code exchange failed")
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeInternal, "Failed to exchange authorization code", nil)
		return
	}

	profile, err := h.gh.GetAuthenticatedUser(r.Context(), token)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch github profile")
		errors.WriteError(w, http.StatusBadGateway, errors.ErrCodeInternal, "Failed to fetch GitHub profile", nil)
		return
	}

	user, err := h.resolveGithubUser(r.Context(), profile, token)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to resolve user", nil)
		return
	}

	h.userRepo.UpdateLastLogin(user.ID, time.Now().Unix())
	h.writeTokens(w, http.StatusOK, user)
}

// resolveGithubUser maps an authenticated GitHub profile to a local user,
// linking by login first and falling back to a verified email match.
// First-time visitors get a fresh account.
func (h *AuthHandler) resolveGithubUser(ctx context.Context, profile *github.Profile, token string) (*models.User, error) {
	user, err := h.userRepo.GetByGithubLogin(profile.Login)
	if err != nil {
		return nil, err
	}

	if user == nil && profile.Email != "" {
		user, err = h.userRepo.GetByEmail(profile.Email)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		email := profile.Email
		if email == "" {
			email = profile.Login + "@users.noreply.github.com"
		}
		user = &models.User{
			ID:            "usr_" + uuid.NewString(),
			Email:         email,
			EmailVerified: profile.Email != "",
			FullName:      profile.Name,
			Role:          "member",
			CreatedAt:     time.Now().Unix(),
			UpdatedAt:     time.Now().Unix(),
		}
		if user.FullName == "" {
			user.FullName = profile.Login
		}
		if err := h.userRepo.Create(user); err != nil {
			return nil, err
		}
	}

	if err := h.userRepo.LinkGithub(user.ID, profile.ID, profile.Login, token); err != nil {
		return nil, err
	}
	user.GithubID = &profile.ID
	user.GithubLogin = profile.Login
	user.GithubToken = token

	// Refresh profile fields on every OAuth login.
	sync.ApplyProfile(user, profile)
	if err := h.userRepo.UpdateGithubProfile(user); err != nil {
		log.Error().Str("user_id", user.ID).Err(err).Msg("failed to store synced profile on login")
	}
	return user, nil
}

// SAMLLogin redirects the browser to the IdP with a fresh AuthnRequest.
func (h *AuthHandler) SAMLLogin(w http.ResponseWriter, r *http.Request) {
	if h.saml == nil {
		errors.WriteError(w, http.StatusNotImplemented, errors.ErrCodeInternal, "SSO is not configured", nil)
		return
	}
	loginURL, err := h.saml.LoginURL(r.URL.Query().Get("return_to"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to build SSO request", nil)
		return
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// HandleSAMLCallback consumes the IdP assertion and issues tokens for the
// asserted user. Unknown subjects are rejected; SSO does not provision users.
func (h *AuthHandler) HandleSAMLCallback(w http.ResponseWriter, r *http.Request) {
	if h.saml == nil {
		errors.WriteError(w, http.StatusNotImplemented, errors.ErrCodeInternal, "SSO is not configured", nil)
		return
	}

	email, err := h.saml.ParseAssertion(r)
	if err != nil {
		log.Warn().Err(err).Msg("saml assertion rejected")
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid SAML assertion", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || user.DeletedAt != nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "No account for asserted identity", nil)
		return
	}

	h.userRepo.UpdateLastLogin(user.ID, time.Now().Unix())
	h.writeTokens(w, http.StatusOK, user)
}

func (h *AuthHandler) GetSAMLMetadata(w http.ResponseWriter, r *http.Request) {
	if h.saml == nil {
		errors.WriteError(w, http.StatusNotImplemented, errors.ErrCodeInternal, "SSO is not configured", nil)
		return
	}
	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	xml.NewEncoder(w).Encode(h.saml.Metadata())
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID, err := h.tokenSvc.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User not found", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RefreshResponse{AccessToken: accessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout is client-side discard.
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, status int, user *models.User) {
	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.Role, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(TokenResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
