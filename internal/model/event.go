package model

import (
	"time"
)

// EventType represents the type of negotiation event published to the
// stream for downstream consumers (email digests, in-app feed).
type EventType string

const (
	EventOfferCreated   EventType = "offer_created"
	EventCounterCreated EventType = "counter_created"
	EventOfferAccepted  EventType = "offer_accepted"
	EventOfferRejected  EventType = "offer_rejected"
	EventOfferWithdrawn EventType = "offer_withdrawn"
	EventItemReceived   EventType = "item_received"
)

// NegotiationEvent is the wire form of a negotiation side effect.
type NegotiationEvent struct {
	ID           string        `json:"id"`
	Type         EventType     `json:"type"`
	OfferID      string        `json:"offer_id"`
	ItemID       string        `json:"item_id"`
	SenderID     string        `json:"sender_id"`
	RecipientID  string        `json:"recipient_id"`
	Notification *Notification `json:"notification,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Sequence     uint64        `json:"sequence,omitempty"`
}
