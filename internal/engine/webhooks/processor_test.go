package webhooks

import (
	"context"
	"errors"
	"testing"

	"opssight/internal/platform/models"
)

type fakeSyncer struct {
	users     map[string]*models.User
	lookupErr error
	syncErr   error
	synced    []string
}

func (f *fakeSyncer) FindByGitHubLogin(login string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.users[login], nil
}

func (f *fakeSyncer) SyncUser(ctx context.Context, userID string) error {
	f.synced = append(f.synced, userID)
	return f.syncErr
}

type fakeDeliveryStore struct {
	deliveries []*models.WebhookDelivery
}

func (f *fakeDeliveryStore) Create(d *models.WebhookDelivery) error {
	f.deliveries = append(f.deliveries, d)
	return nil
}

func newTestProcessor(secret string) (*Processor, *fakeSyncer, *fakeDeliveryStore) {
	syncer := &fakeSyncer{users: map[string]*models.User{
		"octocat":  {ID: "usr_1", GithubLogin: "octocat"},
		"octo-org": {ID: "usr_2", GithubLogin: "octo-org"},
	}}
	store := &fakeDeliveryStore{}
	return NewProcessor(secret, syncer, NewStats(), store), syncer, store
}

func TestProcessPing(t *testing.T) {
	p, _, _ := newTestProcessor("")

	res := p.Process(context.Background(), "ping", []byte(`{"hook_id":42,"zen":"Keep it logically awesome."}`), "")

	if !res.Success {
		t.Error("expected success")
	}
	if res.Message != "Webhook ping received successfully" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.UserUpdated != nil {
		t.Error("ping must not carry user_updated")
	}
}

func TestProcessUnknownEventType(t *testing.T) {
	p, syncer, _ := newTestProcessor("")

	res := p.Process(context.Background(), "workflow_run", []byte(`{}`), "")

	if !res.Success {
		t.Error("unknown event types are acknowledged, not rejected")
	}
	if res.Message != "Event type workflow_run received but not processed" {
		t.Errorf("Message = %q", res.Message)
	}
	if len(syncer.synced) != 0 {
		t.Error("unknown events must not trigger a sync")
	}
}

func TestProcessMalformedPayload(t *testing.T) {
	p, syncer, _ := newTestProcessor("")

	cases := map[string]string{
		"push":         `{"repository":{"full_name":"octocat/hello"}}`,
		"repository":   `{"action":"starred","sender":{"login":"octocat"},"repository":{"full_name":"a/b"}}`,
		"star":         `{"action":"created","repository":{"full_name":"no-slash"}}`,
		"issues":       `{"action":"opened","sender":{"login":"octocat"}}`,
		"pull_request": `{"action":"merged","pull_request":{"number":1},"sender":{"login":"octocat"}}`,
		"ping":         `{"zen":"no hook id"}`,
	}

	for eventType, payload := range cases {
		t.Run(eventType, func(t *testing.T) {
			res := p.Process(context.Background(), eventType, []byte(payload), "")
			if res.Success {
				t.Error("expected validation failure")
			}
			if res.Message != "Failed to process "+eventType+" event" {
				t.Errorf("Message = %q", res.Message)
			}
			if res.Error == "" {
				t.Error("expected error detail")
			}
		})
	}

	if len(syncer.synced) != 0 {
		t.Error("malformed payloads must never trigger a sync")
	}
}

func TestProcessPush(t *testing.T) {
	t.Run("With Commits", func(t *testing.T) {
		p, syncer, _ := newTestProcessor("")

		payload := `{"ref":"refs/heads/main","pusher":{"login":"octocat"},"repository":{"full_name":"octocat/hello"},"commits":[{"id":"abc","message":"fix"}]}`
		res := p.Process(context.Background(), "push", []byte(payload), "")

		if !res.Success || res.Message != "Push event processed" {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.UserUpdated == nil || !*res.UserUpdated {
			t.Error("push with commits must report user_updated=true")
		}
		if len(syncer.synced) != 1 || syncer.synced[0] != "usr_1" {
			t.Errorf("synced = %v, want [usr_1]", syncer.synced)
		}
	})

	t.Run("Empty Commit List", func(t *testing.T) {
		p, syncer, _ := newTestProcessor("")

		payload := `{"ref":"refs/heads/main","pusher":{"login":"octocat"},"repository":{"full_name":"octocat/hello"},"commits":[]}`
		res := p.Process(context.Background(), "push", []byte(payload), "")

		if !res.Success {
			t.Error("expected success")
		}
		if res.UserUpdated == nil || *res.UserUpdated {
			t.Error("push without commits must report user_updated=false")
		}
		if len(syncer.synced) != 0 {
			t.Error("push without commits must not sync")
		}
	})

	t.Run("Unknown Pusher", func(t *testing.T) {
		p, syncer, _ := newTestProcessor("")

		payload := `{"pusher":{"login":"stranger"},"repository":{"full_name":"octocat/hello"},"commits":[{"id":"abc"}]}`
		res := p.Process(context.Background(), "push", []byte(payload), "")

		if !res.Success {
			t.Error("unknown users are a benign outcome")
		}
		if res.Message != "Push event processed, but user not found in system" {
			t.Errorf("Message = %q", res.Message)
		}
		if res.UserUpdated != nil {
			t.Error("not-found results must omit user_updated")
		}
		if len(syncer.synced) != 0 {
			t.Error("unknown pusher must not sync")
		}
	})
}

func TestProcessRepository(t *testing.T) {
	payload := func(action string) []byte {
		return []byte(`{"action":"` + action + `","repository":{"full_name":"octo-org/widgets"},"sender":{"login":"octocat"}}`)
	}

	t.Run("Created Triggers Sync", func(t *testing.T) {
		p, syncer, _ := newTestProcessor("")

		res := p.Process(context.Background(), "repository", payload("created"), "")

		if res.Message != "Repository created event processed" {
			t.Errorf("Message = %q", res.Message)
		}
		if res.UserUpdated == nil || !*res.UserUpdated {
			t.Error("created must report user_updated=true")
		}
		if len(syncer.synced) != 1 {
			t.Errorf("synced = %v, want one sync", syncer.synced)
		}
	})

	t.Run("Edited Does Not Sync", func(t *testing.T) {
		p, syncer, _ := newTestProcessor("")

		res := p.Process(context.Background(), "repository", payload("edited"), "")

		if res.Message != "Repository edited event processed" {
			t.Errorf("Message = %q", res.Message)
		}
		if res.UserUpdated == nil || *res.UserUpdated {
			t.Error("edited must report user_updated=false")
		}
		if len(syncer.synced) != 0 {
			t.Error("edited must not sync")
		}
	})
}

func TestProcessStar(t *testing.T) {
	for _, action := range []string{"created", "deleted"} {
		t.Run(action, func(t *testing.T) {
			p, syncer, _ := newTestProcessor("")

			payload := `{"action":"` + action + `","repository":{"full_name":"octo-org/widgets"},"sender":{"login":"someone-else"}}`
			res := p.Process(context.Background(), "star", []byte(payload), "")

			if !res.Success || res.Message != "Star event processed" {
				t.Errorf("unexpected result: %+v", res)
			}
			if res.UserUpdated == nil || !*res.UserUpdated {
				t.Error("star events always report user_updated=true for a known owner")
			}
			// The repo owner is synced, not the stargazer.
			if len(syncer.synced) != 1 || syncer.synced[0] != "usr_2" {
				t.Errorf("synced = %v, want [usr_2]", syncer.synced)
			}
		})
	}

	t.Run("Unknown Owner", func(t *testing.T) {
		p, _, _ := newTestProcessor("")

		payload := `{"action":"created","repository":{"full_name":"nobody/widgets"}}`
		res := p.Process(context.Background(), "star", []byte(payload), "")

		if res.Message != "Star event processed, but owner not found in system" {
			t.Errorf("Message = %q", res.Message)
		}
	})
}

func TestProcessFork(t *testing.T) {
	p, syncer, _ := newTestProcessor("")

	payload := `{"forkee":{"full_name":"someone/widgets"},"repository":{"full_name":"octo-org/widgets"},"sender":{"login":"someone"}}`
	res := p.Process(context.Background(), "fork", []byte(payload), "")

	if !res.Success || res.Message != "Fork event processed" {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(syncer.synced) != 1 || syncer.synced[0] != "usr_2" {
		t.Errorf("synced = %v, want [usr_2]", syncer.synced)
	}
}

func TestProcessIssuesAndPullRequests(t *testing.T) {
	p, syncer, _ := newTestProcessor("")

	res := p.Process(context.Background(), "issues",
		[]byte(`{"action":"opened","issue":{"number":12},"repository":{"full_name":"a/b"},"sender":{"login":"octocat"}}`), "")
	if res.Message != "Issue opened event processed" {
		t.Errorf("Message = %q", res.Message)
	}
	if res.UserUpdated != nil {
		t.Error("issue events must not carry user_updated")
	}

	res = p.Process(context.Background(), "pull_request",
		[]byte(`{"action":"closed","pull_request":{"number":9,"merged":true},"repository":{"full_name":"a/b"},"sender":{"login":"octocat"}}`), "")
	if res.Message != "Pull request closed event processed" {
		t.Errorf("Message = %q", res.Message)
	}

	if len(syncer.synced) != 0 {
		t.Error("activity-only events must never sync")
	}
}

func TestProcessSignature(t *testing.T) {
	secret := "hook-secret"
	payload := []byte(`{"hook_id":1,"zen":"Anything added dilutes everything else."}`)

	t.Run("Valid", func(t *testing.T) {
		p, _, _ := newTestProcessor(secret)
		res := p.Process(context.Background(), "ping", payload, Sign(secret, payload))
		if !res.Success {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("Invalid Short-Circuits", func(t *testing.T) {
		p, syncer, store := newTestProcessor(secret)

		res := p.Process(context.Background(), "push", []byte(`{"pusher":{"login":"octocat"},"repository":{"full_name":"a/b"}}`), "sha256=0000")

		if res.Success {
			t.Error("expected failure")
		}
		if res.Message != "Invalid webhook signature" || res.Error != "Signature validation failed" {
			t.Errorf("unexpected result: %+v", res)
		}
		if len(syncer.synced) != 0 {
			t.Error("rejected payloads must never be inspected")
		}
		if len(store.deliveries) != 0 {
			t.Error("rejected payloads must not be recorded")
		}
		if p.Stats().TotalEvents != 0 {
			t.Error("rejected payloads must not be counted")
		}
	})

	t.Run("Missing When Secret Configured", func(t *testing.T) {
		p, _, _ := newTestProcessor(secret)
		res := p.Process(context.Background(), "ping", payload, "")
		if res.Success {
			t.Error("missing signature must fail when a secret is configured")
		}
	})

	t.Run("Skipped Without Secret", func(t *testing.T) {
		p, _, _ := newTestProcessor("")
		res := p.Process(context.Background(), "ping", payload, "")
		if !res.Success {
			t.Error("verification is skipped when no secret is configured")
		}
	})
}

func TestProcessIsIdempotencyFree(t *testing.T) {
	// Redelivery of the same payload is processed again in full.
	p, syncer, store := newTestProcessor("")

	payload := []byte(`{"pusher":{"login":"octocat"},"repository":{"full_name":"octocat/hello"},"commits":[{"id":"abc"}]}`)
	p.Process(context.Background(), "push", payload, "")
	p.Process(context.Background(), "push", payload, "")

	if len(syncer.synced) != 2 {
		t.Errorf("synced %d times, want 2", len(syncer.synced))
	}
	if len(store.deliveries) != 2 {
		t.Errorf("recorded %d deliveries, want 2", len(store.deliveries))
	}
}

func TestProcessLookupFailure(t *testing.T) {
	p, syncer, _ := newTestProcessor("")
	syncer.lookupErr = errors.New("database locked")

	payload := `{"pusher":{"login":"octocat"},"repository":{"full_name":"octocat/hello"},"commits":[{"id":"abc"}]}`
	res := p.Process(context.Background(), "push", []byte(payload), "")

	// Lookup failures collapse to the benign not-found outcome.
	if !res.Success {
		t.Error("lookup failures must not fail the event")
	}
	if res.Message != "Push event processed, but user not found in system" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestProcessSyncFailureStillSucceeds(t *testing.T) {
	p, _, _ := newTestProcessor("")
	syncerOf(p).syncErr = errors.New("github unavailable")

	payload := `{"action":"created","repository":{"full_name":"octo-org/widgets"},"sender":{"login":"someone"}}`
	res := p.Process(context.Background(), "star", []byte(payload), "")

	if !res.Success {
		t.Error("sync failures are logged, not surfaced")
	}
	if res.UserUpdated == nil || !*res.UserUpdated {
		t.Error("result records the attempted update")
	}
}

func syncerOf(p *Processor) *fakeSyncer {
	return p.sync.(*fakeSyncer)
}

func TestProcessRecordsDeliveries(t *testing.T) {
	p, _, store := newTestProcessor("")

	payload := `{"action":"deleted","repository":{"full_name":"octo-org/widgets"},"sender":{"login":"octocat"}}`
	p.Process(context.Background(), "repository", []byte(payload), "")

	if len(store.deliveries) != 1 {
		t.Fatalf("recorded %d deliveries, want 1", len(store.deliveries))
	}
	d := store.deliveries[0]
	if d.EventType != "repository" || d.Action != "deleted" || d.ActorLogin != "octocat" {
		t.Errorf("unexpected delivery: %+v", d)
	}
	if !d.Success {
		t.Error("delivery must record the result outcome")
	}

	snap := p.Stats()
	if snap.TotalEvents != 1 || snap.EventTypes["repository"] != 1 {
		t.Errorf("unexpected stats: %+v", snap)
	}
	if snap.LastProcessed == nil {
		t.Error("stats must record last processed time")
	}
}
