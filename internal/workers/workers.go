package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"opssight/internal/engine/sync"
	"opssight/internal/platform/repositories"
)

// Runner owns the periodic maintenance jobs: refreshing stale GitHub
// profiles, expiring read notifications, and pruning old delivery records.
type Runner struct {
	users         *repositories.UserRepository
	notifications *repositories.NotificationRepository
	deliveries    *repositories.DeliveryRepository
	syncSvc       *sync.Service
}

func NewRunner(users *repositories.UserRepository, notifications *repositories.NotificationRepository, deliveries *repositories.DeliveryRepository, syncSvc *sync.Service) *Runner {
	return &Runner{
		users:         users,
		notifications: notifications,
		deliveries:    deliveries,
		syncSvc:       syncSvc,
	}
}

// ResyncStaleProfiles refreshes GitHub-linked users whose profile data
// is older than staleAfter, at most batch users per run.
func (r *Runner) ResyncStaleProfiles(ctx context.Context, staleAfter time.Duration, batch int) error {
	cutoff := time.Now().Add(-staleAfter).Unix()
	users, err := r.users.ListStale(cutoff, batch)
	if err != nil {
		return err
	}

	var synced, failed int
	for _, user := range users {
		if err := r.syncSvc.SyncUser(ctx, user.ID); err != nil {
			failed++
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Stale profile resync failed")
			continue
		}
		synced++
	}

	log.Info().Int("synced", synced).Int("failed", failed).Msg("Stale profile resync finished")
	return nil
}

// CleanupNotifications deletes read notifications older than retention.
func (r *Runner) CleanupNotifications(retention time.Duration) error {
	cutoff := time.Now().Add(-retention).Unix()
	deleted, err := r.notifications.DeleteReadBefore(cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Expired notifications removed")
	}
	return nil
}

// PruneDeliveries drops webhook delivery records older than retention.
func (r *Runner) PruneDeliveries(retention time.Duration) error {
	cutoff := time.Now().Add(-retention)
	deleted, err := r.deliveries.DeleteBefore(cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("Old webhook deliveries pruned")
	}
	return nil
}
