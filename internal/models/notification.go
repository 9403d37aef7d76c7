package models

import "time"

// NotificationType categorizes a console notification.
type NotificationType string

const (
	NotificationOrder  NotificationType = "order"
	NotificationSystem NotificationType = "system"
)

// Notification is a client-local, ephemeral record of something the
// admin should see, typically a newly detected order. It lives only in
// the poller's in-memory store and is never persisted.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	OrderNumber string           `json:"orderNumber,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	Read        bool             `json:"read"`
}
