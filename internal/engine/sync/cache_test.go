package sync

import (
	"testing"
	"time"

	"opssight/internal/platform/models"
)

func TestLookupCache(t *testing.T) {
	c := newLookupCache(50 * time.Millisecond)
	user := &models.User{ID: "usr_1", GithubLogin: "octocat"}

	if _, ok := c.Get("octocat"); ok {
		t.Error("empty cache must miss")
	}

	c.Set("octocat", user)
	got, ok := c.Get("octocat")
	if !ok || got.ID != "usr_1" {
		t.Errorf("Get() = %v, %v", got, ok)
	}

	c.Invalidate("octocat")
	if _, ok := c.Get("octocat"); ok {
		t.Error("invalidated entry must miss")
	}
}

func TestLookupCacheExpiry(t *testing.T) {
	c := newLookupCache(10 * time.Millisecond)
	c.Set("octocat", &models.User{ID: "usr_1"})

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("octocat"); ok {
		t.Error("expired entry must miss")
	}
}

func TestServiceCachesLookups(t *testing.T) {
	store := &countingUserStore{
		fakeUserStore: fakeUserStore{byLogin: map[string]*models.User{
			"octocat": {ID: "usr_1", GithubLogin: "octocat"},
		}},
	}
	svc := NewService(store, &fakeFetcher{}, nil)

	for i := 0; i < 3; i++ {
		if _, err := svc.FindByGitHubLogin("octocat"); err != nil {
			t.Fatalf("FindByGitHubLogin: %v", err)
		}
	}

	if store.loginLookups != 1 {
		t.Errorf("store queried %d times, want 1", store.loginLookups)
	}

	// Misses are never cached.
	svc.FindByGitHubLogin("ghost")
	svc.FindByGitHubLogin("ghost")
	if store.loginLookups != 3 {
		t.Errorf("store queried %d times, want 3", store.loginLookups)
	}
}

type countingUserStore struct {
	fakeUserStore
	loginLookups int
}

func (s *countingUserStore) GetByGithubLogin(login string) (*models.User, error) {
	s.loginLookups++
	return s.fakeUserStore.GetByGithubLogin(login)
}
