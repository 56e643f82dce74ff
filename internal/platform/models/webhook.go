package models

// WebhookDelivery is the persisted record of one processed inbound event.
type WebhookDelivery struct {
	ID          string `json:"id"`
	EventType   string `json:"event_type"`
	Action      string `json:"action,omitempty"`
	ActorLogin  string `json:"actor_login,omitempty"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UserUpdated *bool  `json:"user_updated,omitempty"`
	Error       string `json:"error,omitempty"`
	ReceivedAt  int64  `json:"received_at"`
}
