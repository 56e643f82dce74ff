package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opssight/internal/platform/github"
	"opssight/internal/platform/models"
)

// ProfileFetcher is the slice of the GitHub client the sync service needs.
type ProfileFetcher interface {
	GetUser(ctx context.Context, login, token string) (*github.Profile, error)
}

type UserStore interface {
	GetByID(id string) (*models.User, error)
	GetByGithubLogin(login string) (*models.User, error)
	UpdateGithubProfile(user *models.User) error
}

type NotificationStore interface {
	Create(n *models.Notification) error
}

// Service re-fetches a user's GitHub profile and writes the result into the
// local user record. It carries no state across calls; two concurrent syncs
// for the same user are last-write-wins.
type Service struct {
	users         UserStore
	gh            ProfileFetcher
	notifications NotificationStore // optional
	cache         *lookupCache
}

func NewService(users UserStore, gh ProfileFetcher, notifications NotificationStore) *Service {
	return &Service{
		users:         users,
		gh:            gh,
		notifications: notifications,
		cache:         newLookupCache(time.Minute),
	}
}

// FindByGitHubLogin resolves an external login to a local user.
// Returns (nil, nil) when no user is linked to the login.
func (s *Service) FindByGitHubLogin(login string) (*models.User, error) {
	if login == "" {
		return nil, nil
	}
	if user, ok := s.cache.Get(login); ok {
		return user, nil
	}
	user, err := s.users.GetByGithubLogin(login)
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.cache.Set(login, user)
	}
	return user, nil
}

// SyncUser fetches the linked GitHub profile and persists the updated fields.
func (s *Service) SyncUser(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}
	if user.GithubLogin == "" {
		return fmt.Errorf("user %s has no linked GitHub identity", userID)
	}

	profile, err := s.gh.GetUser(ctx, user.GithubLogin, user.GithubToken)
	if err != nil {
		return fmt.Errorf("fetch profile for %s: %w", user.GithubLogin, err)
	}

	ApplyProfile(user, profile)
	if err := s.users.UpdateGithubProfile(user); err != nil {
		return fmt.Errorf("persist profile for %s: %w", userID, err)
	}

	// Cached lookups carry the pre-sync snapshot; drop them.
	s.cache.Invalidate(user.GithubLogin)

	log.Info().Str("user_id", userID).Str("login", user.GithubLogin).Msg("github profile synced")
	s.notify(user)
	return nil
}

// ApplyProfile maps fetched GitHub profile fields onto the local user record.
func ApplyProfile(user *models.User, profile *github.Profile) {
	if profile.Name != "" {
		user.FullName = profile.Name
	} else if user.FullName == "" {
		user.FullName = profile.Login
	}
	user.AvatarURL = profile.AvatarURL
	user.Company = profile.Company
	user.Location = profile.Location
	user.Blog = profile.Blog
	user.Bio = profile.Bio
	user.PublicRepos = profile.PublicRepos
	user.Followers = profile.Followers
	user.Following = profile.Following
}

func (s *Service) notify(user *models.User) {
	if s.notifications == nil {
		return
	}
	n := &models.Notification{
		ID:        "ntf_" + uuid.NewString(),
		UserID:    user.ID,
		Type:      "sync",
		Title:     "GitHub profile synced",
		Body:      fmt.Sprintf("Profile data for @%s was refreshed from GitHub.", user.GithubLogin),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.notifications.Create(n); err != nil {
		log.Error().Str("user_id", user.ID).Err(err).Msg("failed to create sync notification")
	}
}
