// Package model defines data structures for the negotiation platform.
package model

import (
	"fmt"
	"time"
)

// OfferKind distinguishes what a negotiation record represents.
type OfferKind string

const (
	// KindOffer is an opening offer on an item.
	KindOffer OfferKind = "offer"
	// KindCounterOffer is an offer made in reply to a pending offer
	// from the other party on the same item.
	KindCounterOffer OfferKind = "counter_offer"
	// KindAccept is the confirmation record created when a
	// counter-offer is accepted, so both parties hold a durable
	// artifact of the agreed price.
	KindAccept OfferKind = "accept"
)

// OfferStatus is the lifecycle state of a single negotiation record.
// pending is left exactly once; accepted, rejected and withdrawn are
// terminal.
type OfferStatus string

const (
	StatusPending   OfferStatus = "pending"
	StatusAccepted  OfferStatus = "accepted"
	StatusRejected  OfferStatus = "rejected"
	StatusWithdrawn OfferStatus = "withdrawn"
)

// ParseOfferStatus validates a status string read from storage or input.
func ParseOfferStatus(s string) (OfferStatus, error) {
	switch OfferStatus(s) {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn:
		return OfferStatus(s), nil
	}
	return "", fmt.Errorf("unknown offer status %q", s)
}

// ParseOfferKind validates a kind string read from storage or input.
func ParseOfferKind(s string) (OfferKind, error) {
	switch OfferKind(s) {
	case KindOffer, KindCounterOffer, KindAccept:
		return OfferKind(s), nil
	}
	return "", fmt.Errorf("unknown offer kind %q", s)
}

// Terminal reports whether no further status transition is permitted.
func (s OfferStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// Offer is one immutable negotiation action with a mutable status:
// an opening offer, a counter-offer, or an acceptance confirmation.
type Offer struct {
	ID          string    `json:"id" db:"id"`
	ItemID      string    `json:"item_id" db:"item_id"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	Kind        OfferKind `json:"kind" db:"kind"`

	// Amount is the proposed price in minor currency units. Zero is a
	// plain inquiry without a price attached.
	Amount  int64  `json:"amount" db:"amount"`
	Content string `json:"content,omitempty" db:"content"`

	Status OfferStatus `json:"status" db:"status"`

	// OriginalOfferID links a counter-offer to the record it answers.
	// Counters always reference their immediate predecessor, so the
	// chain points strictly backward in time.
	OriginalOfferID *string `json:"original_offer_id,omitempty" db:"original_offer_id"`

	// Acknowledged marks a counter-offer that has been answered by a
	// further counter. It never affects Status.
	Acknowledged bool `json:"acknowledged,omitempty" db:"acknowledged"`

	// MarkedAsReceived is the buyer's confirmation of physical
	// transfer, a second terminal step independent of Status.
	MarkedAsReceived bool       `json:"marked_as_received,omitempty" db:"marked_as_received"`
	ReceivedAt       *time.Time `json:"received_at,omitempty" db:"received_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Item is the directory view of a listed item: just enough to
// authorize negotiation actions and render notification text.
type Item struct {
	ID       string `json:"id" db:"id"`
	SellerID string `json:"seller_id" db:"seller_id"`
	Title    string `json:"title" db:"title"`
}

// User is the directory view of a participant.
type User struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`
}

// MakeOfferRequest is the request to open a negotiation on an item.
type MakeOfferRequest struct {
	ItemID      string `json:"item_id" validate:"required,uuid"`
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"gte=0"`
	Content     string `json:"content" validate:"max=4096"`
}

// CounterOfferRequest is the request to answer a pending counter-offer.
type CounterOfferRequest struct {
	Amount  int64  `json:"amount" validate:"gte=0"`
	Content string `json:"content" validate:"max=4096"`
}

// RejectOfferRequest carries the optional free-text rejection reason.
type RejectOfferRequest struct {
	Reason string `json:"reason" validate:"max=1024"`
}

// ListOffersResponse is the response for listing an actor's offers.
type ListOffersResponse struct {
	Offers  []Offer `json:"offers"`
	Total   int     `json:"total"`
	HasMore bool    `json:"has_more"`
}

// ChainResponse is the response for a negotiation chain query,
// ordered oldest first.
type ChainResponse struct {
	Offers []Offer `json:"offers"`
	Length int     `json:"length"`
}
