package models

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Type      string `json:"type"` // sync, team, system
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
	ReadAt    *int64 `json:"read_at,omitempty"`
}
