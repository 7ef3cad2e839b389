package model

import (
	"time"
)

// NotificationCategory classifies what a notification announces.
type NotificationCategory string

const (
	NotificationOfferReceived   NotificationCategory = "offer_received"
	NotificationCounterReceived NotificationCategory = "counter_received"
	NotificationOfferAccepted   NotificationCategory = "offer_accepted"
	NotificationOfferRejected   NotificationCategory = "offer_rejected"
	NotificationOfferWithdrawn  NotificationCategory = "offer_withdrawn"
	NotificationItemReceived    NotificationCategory = "item_received"
)

// Notification is a persisted in-app notification. Downstream
// consumers rely on OfferAmount, SenderName and ItemTitle always
// being present, even when the amount is zero.
type Notification struct {
	ID          string               `json:"id" db:"id"`
	RecipientID string               `json:"recipient_id" db:"recipient_id"`
	SenderID    string               `json:"sender_id" db:"sender_id"`
	Category    NotificationCategory `json:"category" db:"category"`
	OfferID     string               `json:"offer_id" db:"offer_id"`
	OfferAmount int64                `json:"offer_amount" db:"offer_amount"`
	SenderName  string               `json:"sender_name" db:"sender_name"`
	ItemTitle   string               `json:"item_title" db:"item_title"`
	Message     string               `json:"message,omitempty" db:"message"`
	Read        bool                 `json:"read" db:"read"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
}

// ListNotificationsResponse is the response for listing notifications.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int            `json:"unread"`
	Total         int            `json:"total"`
}
