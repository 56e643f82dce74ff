package webhooks

import (
	"testing"
)

func TestRepositoryOwner(t *testing.T) {
	repo := Repository{FullName: "octo-org/widgets"}
	if got := repo.Owner(); got != "octo-org" {
		t.Errorf("Owner() = %q, want octo-org", got)
	}

	// No slash: the whole name is treated as the owner segment.
	repo = Repository{FullName: "solo"}
	if got := repo.Owner(); got != "solo" {
		t.Errorf("Owner() = %q, want solo", got)
	}
}

func TestPushEventValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ev := PushEvent{Pusher: Actor{Login: "octocat"}, Repository: Repository{FullName: "octocat/hello"}}
		if err := ev.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("Missing Pusher Login", func(t *testing.T) {
		ev := PushEvent{Repository: Repository{FullName: "octocat/hello"}}
		if err := ev.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("Missing Repository", func(t *testing.T) {
		ev := PushEvent{Pusher: Actor{Login: "octocat"}}
		if err := ev.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})
}

func TestRepositoryEventValidate(t *testing.T) {
	base := func(action string) RepositoryEvent {
		return RepositoryEvent{
			Action:     action,
			Repository: Repository{FullName: "octo-org/widgets"},
			Sender:     Actor{Login: "octocat"},
		}
	}

	for _, action := range []string{"created", "deleted", "archived", "unarchived", "edited", "renamed", "transferred", "publicized", "privatized"} {
		ev := base(action)
		if err := ev.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", action, err)
		}
	}

	ev := base("starred")
	if err := ev.Validate(); err == nil {
		t.Error("Validate(starred) = nil, want error")
	}
}

func TestStarEventValidate(t *testing.T) {
	t.Run("Unknown Action", func(t *testing.T) {
		ev := StarEvent{Action: "sparkled", Repository: Repository{FullName: "octo-org/widgets"}}
		if err := ev.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("Malformed Full Name", func(t *testing.T) {
		ev := StarEvent{Action: "created", Repository: Repository{FullName: "widgets"}}
		if err := ev.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("Deleted Is Valid", func(t *testing.T) {
		ev := StarEvent{Action: "deleted", Repository: Repository{FullName: "octo-org/widgets"}}
		if err := ev.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestIssuesEventValidate(t *testing.T) {
	ev := IssuesEvent{
		Action: "opened",
		Issue:  Issue{Number: 42, Title: "panic on empty input"},
		Sender: Actor{Login: "octocat"},
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	ev.Issue.Number = 0
	if err := ev.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing issue number")
	}
}

func TestPullRequestEventValidate(t *testing.T) {
	ev := PullRequestEvent{
		Action:      "synchronize",
		PullRequest: PullRequest{Number: 7},
		Sender:      Actor{Login: "octocat"},
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	ev.Action = "merged"
	if err := ev.Validate(); err == nil {
		t.Error("Validate() = nil, want error for unsupported action")
	}
}

func TestPingEventValidate(t *testing.T) {
	ev := PingEvent{HookID: 123, Zen: "Design for failure."}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	ev.HookID = 0
	if err := ev.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing hook_id")
	}
}
