package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opssight/internal/platform/models"
)

// Result is returned for every inbound event. Process never propagates an
// error to the caller; all failure modes are absorbed into the result.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UserUpdated *bool  `json:"user_updated,omitempty"`
	Error       string `json:"error,omitempty"`
}

// UserSyncer resolves external logins to local users and re-syncs profiles.
type UserSyncer interface {
	FindByGitHubLogin(login string) (*models.User, error)
	SyncUser(ctx context.Context, userID string) error
}

// DeliveryStore persists a record of each processed event.
type DeliveryStore interface {
	Create(d *models.WebhookDelivery) error
}

type Processor struct {
	secret     string
	sync       UserSyncer
	stats      *Stats
	deliveries DeliveryStore // optional
}

// NewProcessor builds a webhook processor. secret may be empty, in which
// case signature verification is skipped entirely. deliveries may be nil.
func NewProcessor(secret string, syncer UserSyncer, stats *Stats, deliveries DeliveryStore) *Processor {
	if stats == nil {
		stats = NewStats()
	}
	return &Processor{secret: secret, sync: syncer, stats: stats, deliveries: deliveries}
}

func (p *Processor) Stats() StatsSnapshot {
	return p.stats.Snapshot()
}

// eventMeta carries per-event fields into the persisted delivery record.
type eventMeta struct {
	action     string
	actorLogin string
}

// Process validates, dispatches and handles one inbound event. The returned
// Result always acknowledges receipt; a rejected signature is the only case
// where the event contents are never inspected.
func (p *Processor) Process(ctx context.Context, eventType string, payload []byte, signature string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", eventType).Interface("panic", r).Msg("webhook processing panicked")
			res = Result{Success: false, Message: "Webhook processing failed", Error: fmt.Sprint(r)}
		}
	}()

	if p.secret != "" {
		if err := Verify(p.secret, payload, signature); err != nil {
			log.Warn().Str("event", eventType).Err(err).Msg("webhook signature rejected")
			return Result{Success: false, Message: "Invalid webhook signature", Error: "Signature validation failed"}
		}
	}

	meta := &eventMeta{}
	switch eventType {
	case "push":
		res = p.handlePush(ctx, payload, meta)
	case "repository":
		res = p.handleRepository(ctx, payload, meta)
	case "star":
		res = p.handleStar(ctx, payload, meta)
	case "fork":
		res = p.handleFork(ctx, payload, meta)
	case "issues":
		res = p.handleIssues(ctx, payload, meta)
	case "pull_request":
		res = p.handlePullRequest(ctx, payload, meta)
	case "ping":
		res = p.handlePing(payload)
	default:
		res = Result{Success: true, Message: fmt.Sprintf("Event type %s received but not processed", eventType)}
	}

	p.stats.Record(eventType)
	p.recordDelivery(eventType, meta, res)
	return res
}

func (p *Processor) handlePush(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev PushEvent
	if err := decode(payload, &ev); err != nil {
		return failure("push", err)
	}
	meta.actorLogin = ev.Pusher.Login

	user, found := p.lookup(ev.Pusher.Login)
	if !found {
		return Result{Success: true, Message: "Push event processed, but user not found in system"}
	}

	updated := len(ev.Commits) > 0
	if updated {
		p.syncUser(ctx, user.ID, "push")
	}
	return Result{Success: true, Message: "Push event processed", UserUpdated: &updated}
}

// syncTriggeringRepoActions are the repository actions that change a user's
// public repository count and therefore warrant a profile re-sync.
var syncTriggeringRepoActions = map[string]bool{"created": true, "deleted": true}

func (p *Processor) handleRepository(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev RepositoryEvent
	if err := decode(payload, &ev); err != nil {
		return failure("repository", err)
	}
	meta.action = ev.Action
	meta.actorLogin = ev.Sender.Login

	user, found := p.lookup(ev.Sender.Login)
	if !found {
		return Result{Success: true, Message: "Repository event processed, but user not found in system"}
	}

	updated := syncTriggeringRepoActions[ev.Action]
	if updated {
		p.syncUser(ctx, user.ID, "repository")
	}
	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Repository %s event processed", ev.Action),
		UserUpdated: &updated,
	}
}

func (p *Processor) handleStar(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev StarEvent
	if err := decode(payload, &ev); err != nil {
		return failure("star", err)
	}
	meta.action = ev.Action
	meta.actorLogin = ev.Repository.Owner()

	owner, found := p.lookup(ev.Repository.Owner())
	if !found {
		return Result{Success: true, Message: "Star event processed, but owner not found in system"}
	}

	p.syncUser(ctx, owner.ID, "star")
	updated := true
	return Result{Success: true, Message: "Star event processed", UserUpdated: &updated}
}

func (p *Processor) handleFork(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev ForkEvent
	if err := decode(payload, &ev); err != nil {
		return failure("fork", err)
	}
	meta.actorLogin = ev.Repository.Owner()

	owner, found := p.lookup(ev.Repository.Owner())
	if !found {
		return Result{Success: true, Message: "Fork event processed, but owner not found in system"}
	}

	p.syncUser(ctx, owner.ID, "fork")
	updated := true
	return Result{Success: true, Message: "Fork event processed", UserUpdated: &updated}
}

func (p *Processor) handleIssues(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev IssuesEvent
	if err := decode(payload, &ev); err != nil {
		return failure("issues", err)
	}
	meta.action = ev.Action
	meta.actorLogin = ev.Sender.Login

	// Lookup keeps activity attribution observable in logs; issue events
	// never trigger a sync.
	p.lookup(ev.Sender.Login)
	return Result{Success: true, Message: fmt.Sprintf("Issue %s event processed", ev.Action)}
}

func (p *Processor) handlePullRequest(ctx context.Context, payload []byte, meta *eventMeta) Result {
	var ev PullRequestEvent
	if err := decode(payload, &ev); err != nil {
		return failure("pull_request", err)
	}
	meta.action = ev.Action
	meta.actorLogin = ev.Sender.Login

	p.lookup(ev.Sender.Login)
	return Result{Success: true, Message: fmt.Sprintf("Pull request %s event processed", ev.Action)}
}

func (p *Processor) handlePing(payload []byte) Result {
	var ev PingEvent
	if err := decode(payload, &ev); err != nil {
		return failure("ping", err)
	}
	log.Info().Int64("hook_id", ev.HookID).Str("zen", ev.Zen).Msg("webhook ping received")
	return Result{Success: true, Message: "Webhook ping received successfully"}
}

// lookup resolves an external login to a local user. Lookup errors are
// logged but collapsed to "not found" so the event is still acknowledged.
func (p *Processor) lookup(login string) (*models.User, bool) {
	user, err := p.sync.FindByGitHubLogin(login)
	if err != nil {
		log.Error().Str("login", login).Err(err).Msg("user lookup failed, treating as not found")
		return nil, false
	}
	if user == nil {
		return nil, false
	}
	return user, true
}

// syncUser triggers a profile re-sync. The result only records that a sync
// was attempted; sync failures are logged, not surfaced.
func (p *Processor) syncUser(ctx context.Context, userID, trigger string) {
	if err := p.sync.SyncUser(ctx, userID); err != nil {
		log.Error().Str("user_id", userID).Str("trigger", trigger).Err(err).Msg("user sync failed")
	}
}

func (p *Processor) recordDelivery(eventType string, meta *eventMeta, res Result) {
	if p.deliveries == nil {
		return
	}
	d := &models.WebhookDelivery{
		ID:          "del_" + uuid.NewString(),
		EventType:   eventType,
		Action:      meta.action,
		ActorLogin:  meta.actorLogin,
		Success:     res.Success,
		Message:     res.Message,
		UserUpdated: res.UserUpdated,
		Error:       res.Error,
		ReceivedAt:  time.Now().Unix(),
	}
	if err := p.deliveries.Create(d); err != nil {
		log.Error().Str("event", eventType).Err(err).Msg("failed to persist webhook delivery")
	}
}

func failure(event string, err error) Result {
	return Result{
		Success: false,
		Message: fmt.Sprintf("Failed to process %s event", event),
		Error:   err.Error(),
	}
}
