package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/model"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
)

// Store defines the persistence operations the negotiation engine and
// its collaborators need. Methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateOffer inserts a new negotiation record.
	CreateOffer(ctx context.Context, offer *model.Offer) error

	// GetOffer retrieves an offer by ID. Returns nil, nil if not found.
	GetOffer(ctx context.Context, id string) (*model.Offer, error)

	// UpdateOfferStatus atomically moves an offer from one status to
	// another. It reports false when the offer was not in the expected
	// status, which is how concurrent transitions lose the race.
	UpdateOfferStatus(ctx context.Context, id string, from, to model.OfferStatus, now time.Time) (bool, error)

	// MarkOfferReceived sets the received flag on an accepted offer.
	// Reports false when the offer is not accepted or already marked.
	MarkOfferReceived(ctx context.Context, id string, now time.Time) (bool, error)

	// AcknowledgeOffer marks a counter-offer as answered without
	// touching its status.
	AcknowledgeOffer(ctx context.Context, id string, now time.Time) error

	// LatestPendingBetween returns the most recent pending offer or
	// counter-offer on the item sent by senderID to recipientID, or
	// nil, nil when no such record exists.
	LatestPendingBetween(ctx context.Context, itemID, senderID, recipientID string) (*model.Offer, error)

	// ListOffersForUser returns offers where the user is sender or
	// recipient, newest first, with the total count for pagination.
	ListOffersForUser(ctx context.Context, userID string, limit, offset int) ([]model.Offer, int, error)

	// GetRepliesTo returns all offers whose OriginalOfferID is one of
	// the given ids.
	GetRepliesTo(ctx context.Context, ids []string) ([]model.Offer, error)

	// GetItem retrieves an item by ID. Returns nil, nil if not found.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// CreateItem and CreateUser populate the directory. Listing and
	// account management live elsewhere; these exist for seeding and
	// for the services that own those tables.
	CreateItem(ctx context.Context, item *model.Item) error
	CreateUser(ctx context.Context, user *model.User) error

	// CreateNotification persists a notification row.
	CreateNotification(ctx context.Context, n *model.Notification) error

	// ListNotifications returns a recipient's notifications, newest
	// first, along with the unread count.
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, int, error)

	// MarkNotificationRead flags a notification as read. Reports false
	// when the notification does not exist or belongs to someone else.
	MarkNotificationRead(ctx context.Context, id, recipientID string) (bool, error)
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, log *logger.Logger) Store {
	return &sqlxStore{
		db:     db,
		logger: log.With(zap.String("component", "store")),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const offerColumns = `id, item_id, sender_id, recipient_id, kind, amount, content, status,
	original_offer_id, acknowledged, marked_as_received, received_at, created_at, updated_at`

func (s *sqlxStore) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if offer == nil {
		return errors.New("cannot save nil offer")
	}

	query := `
		INSERT INTO offers (id, item_id, sender_id, recipient_id, kind, amount, content, status,
			original_offer_id, acknowledged, marked_as_received, received_at, created_at, updated_at)
		VALUES (:id, :item_id, :sender_id, :recipient_id, :kind, :amount, :content, :status,
			:original_offer_id, :acknowledged, :marked_as_received, :received_at, :created_at, :updated_at);
	`

	if _, err := s.db.NamedExecContext(ctx, query, offer); err != nil {
		s.logger.Error("failed to insert offer",
			zap.String("offer_id", offer.ID),
			zap.String("item_id", offer.ItemID),
			zap.Error(err))
		return fmt.Errorf("failed to insert offer %s: %w", offer.ID, err)
	}

	return nil
}

func (s *sqlxStore) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	var offer model.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`

	err := s.db.GetContext(ctx, &offer, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get offer %s: %w", id, err)
	}

	return &offer, nil
}

func (s *sqlxStore) UpdateOfferStatus(ctx context.Context, id string, from, to model.OfferStatus, now time.Time) (bool, error) {
	// Compare-and-set on status. A plain read-then-write would let two
	// concurrent transitions both succeed.
	result, err := s.db.ExecContext(ctx,
		`UPDATE offers SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, now, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update status of offer %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for offer %s: %w", id, err)
	}

	return affected == 1, nil
}

func (s *sqlxStore) MarkOfferReceived(ctx context.Context, id string, now time.Time) (bool, error) {
	// The guard on marked_as_received makes a second call lose, so the
	// completion notification can never double-fire.
	result, err := s.db.ExecContext(ctx,
		`UPDATE offers SET marked_as_received = 1, received_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND marked_as_received = 0`,
		now, now, id, model.StatusAccepted)
	if err != nil {
		return false, fmt.Errorf("failed to mark offer %s received: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for offer %s: %w", id, err)
	}

	return affected == 1, nil
}

func (s *sqlxStore) AcknowledgeOffer(ctx context.Context, id string, now time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE offers SET acknowledged = 1, updated_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("failed to acknowledge offer %s: %w", id, err)
	}
	return nil
}

func (s *sqlxStore) LatestPendingBetween(ctx context.Context, itemID, senderID, recipientID string) (*model.Offer, error) {
	var offer model.Offer
	query := `SELECT ` + offerColumns + `
		FROM offers
		WHERE item_id = ? AND sender_id = ? AND recipient_id = ?
			AND status = ? AND kind IN (?, ?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	err := s.db.GetContext(ctx, &offer, query,
		itemID, senderID, recipientID, model.StatusPending, model.KindOffer, model.KindCounterOffer)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to find pending offer on item %s: %w", itemID, err)
	}

	return &offer, nil
}

func (s *sqlxStore) ListOffersForUser(ctx context.Context, userID string, limit, offset int) ([]model.Offer, int, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM offers WHERE sender_id = ? OR recipient_id = ?`,
		userID, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count offers for user %s: %w", userID, err)
	}

	var offers []model.Offer
	query := `SELECT ` + offerColumns + `
		FROM offers
		WHERE sender_id = ? OR recipient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	if err := s.db.SelectContext(ctx, &offers, query, userID, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list offers for user %s: %w", userID, err)
	}

	return offers, total, nil
}

func (s *sqlxStore) GetRepliesTo(ctx context.Context, ids []string) ([]model.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+offerColumns+` FROM offers WHERE original_offer_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build replies query: %w", err)
	}

	query = s.db.Rebind(query)

	var offers []model.Offer
	if err := s.db.SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}

	return offers, nil
}

func (s *sqlxStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := s.db.GetContext(ctx, &item,
		`SELECT id, seller_id, title FROM items WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return &item, nil
}

func (s *sqlxStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, display_name FROM users WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

func (s *sqlxStore) CreateItem(ctx context.Context, item *model.Item) error {
	if item == nil {
		return errors.New("cannot save nil item")
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO items (id, seller_id, title) VALUES (:id, :seller_id, :title)`, item); err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	return nil
}

func (s *sqlxStore) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("cannot save nil user")
	}
	if _, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (id, display_name) VALUES (:id, :display_name)`, user); err != nil {
		return fmt.Errorf("failed to insert user %s: %w", user.ID, err)
	}
	return nil
}

func (s *sqlxStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return errors.New("cannot save nil notification")
	}

	query := `
		INSERT INTO notifications (id, recipient_id, sender_id, category, offer_id,
			offer_amount, sender_name, item_title, message, read, created_at)
		VALUES (:id, :recipient_id, :sender_id, :category, :offer_id,
			:offer_amount, :sender_name, :item_title, :message, :read, :created_at);
	`

	if _, err := s.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
	}

	return nil
}

func (s *sqlxStore) ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, int, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 200 {
		limit = 200
	}

	var unread int
	if err := s.db.GetContext(ctx, &unread,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND read = 0`,
		recipientID); err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	var notifications []model.Notification
	query := `
		SELECT id, recipient_id, sender_id, category, offer_id, offer_amount,
			sender_name, item_title, message, read, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	if err := s.db.SelectContext(ctx, &notifications, query, recipientID, limit); err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications for %s: %w", recipientID, err)
	}

	return notifications, unread, nil
}

func (s *sqlxStore) MarkNotificationRead(ctx context.Context, id, recipientID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?`,
		id, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for notification %s: %w", id, err)
	}

	return affected == 1, nil
}
