package repositories

import (
	"database/sql"
	"time"

	"opssight/internal/platform/models"
)

type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(d *models.WebhookDelivery) error {
	var userUpdated interface{}
	if d.UserUpdated != nil {
		userUpdated = *d.UserUpdated
	}
	_, err := r.db.Exec(`
		INSERT INTO webhook_deliveries (id, event_type, action, actor_login, success, message, user_updated, error, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.EventType, d.Action, d.ActorLogin, d.Success, d.Message, userUpdated, d.Error, d.ReceivedAt)
	return err
}

func (r *DeliveryRepository) ListRecent(limit int) ([]*models.WebhookDelivery, error) {
	rows, err := r.db.Query(`
		SELECT id, event_type, action, actor_login, success, message, user_updated, error, received_at
		FROM webhook_deliveries ORDER BY received_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*models.WebhookDelivery
	for rows.Next() {
		d := &models.WebhookDelivery{}
		var action, actorLogin, errMsg sql.NullString
		var userUpdated sql.NullBool
		if err := rows.Scan(&d.ID, &d.EventType, &action, &actorLogin, &d.Success, &d.Message, &userUpdated, &errMsg, &d.ReceivedAt); err != nil {
			return nil, err
		}
		d.Action = action.String
		d.ActorLogin = actorLogin.String
		d.Error = errMsg.String
		if userUpdated.Valid {
			v := userUpdated.Bool
			d.UserUpdated = &v
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// CountsByType aggregates delivery counts per event type.
func (r *DeliveryRepository) CountsByType() (map[string]int64, error) {
	rows, err := r.db.Query(`SELECT event_type, COUNT(*) FROM webhook_deliveries GROUP BY event_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		counts[eventType] = count
	}
	return counts, rows.Err()
}

// DeleteBefore prunes deliveries received before the cutoff.
func (r *DeliveryRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM webhook_deliveries WHERE received_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
