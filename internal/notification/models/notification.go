package models

import "time"

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatedEvent is the record published when a notification is stored.
type CreatedEvent struct {
	Type           string    `json:"type"`
	NotificationID int64     `json:"notificationId"`
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

const EventCreated = "notification.created"
