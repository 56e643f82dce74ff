package repositories

import (
	"database/sql"
	"time"

	"opssight/internal/platform/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications (id, user_id, type, title, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Type, n.Title, n.Body, n.Read, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListForUser(userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	query := `SELECT id, user_id, type, title, body, read, created_at, read_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var body sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &body, &n.Read, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		n.Body = body.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&count)
	return count, err
}

func (r *NotificationRepository) MarkRead(id, userID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET read = 1, read_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().Unix(), id, userID)
	return err
}

func (r *NotificationRepository) MarkAllRead(userID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET read = 1, read_at = ? WHERE user_id = ? AND read = 0`,
		time.Now().Unix(), userID)
	return err
}

func (r *NotificationRepository) Delete(id, userID string) error {
	_, err := r.db.Exec(`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// DeleteReadBefore prunes read notifications older than the cutoff.
func (r *NotificationRepository) DeleteReadBefore(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM notifications WHERE read = 1 AND created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
