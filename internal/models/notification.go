package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// Notification types persisted alongside real-time pushes
const (
	NotificationTypeRequestReceived = "request_received"
	NotificationTypeRequestDecision = "request_decision"
	NotificationTypeSessionBooked   = "session_booked"
	NotificationTypeSessionUpdate   = "session_update"
)

// Notification is a durable per-user message, distinct from the transient
// real-time push: it survives a missed delivery and carries a read flag.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NotificationsResponse is the response for listing notifications
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Unread        int            `json:"unread"`
}

// ScanNotification scans a single PostgreSQL row into a Notification.
// Expected columns: id, user_id, type, title, message, data, read, created_at
func ScanNotification(row pgx.Row) (*Notification, error) {
	var n Notification

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Data,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// ScanNotifications scans multiple rows into a slice of Notification
func ScanNotifications(rows pgx.Rows) ([]*Notification, error) {
	defer rows.Close()

	notifications := []*Notification{}
	for rows.Next() {
		notification, err := ScanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
