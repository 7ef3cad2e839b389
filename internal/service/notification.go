// Package service provides business logic for the negotiation platform.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/database"
	"github.com/clubmarket/negotiation-platform/internal/model"
	natsclient "github.com/clubmarket/negotiation-platform/internal/nats"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
	"github.com/clubmarket/negotiation-platform/pkg/metrics"
)

// NotificationDispatcher is the engine's view of the notification
// side effect. Dispatch never fails from the caller's perspective:
// delivery problems are logged and counted, because a notification
// failure must not roll back an already-committed status transition.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, eventType model.EventType, offer *model.Offer, n *model.Notification)
}

// NotificationService persists notifications and publishes them to the
// negotiation stream for downstream consumers (in-app feed, email).
type NotificationService struct {
	store         database.Store
	streamManager *natsclient.StreamManager
	logger        *logger.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store database.Store, streamManager *natsclient.StreamManager, log *logger.Logger) *NotificationService {
	return &NotificationService{
		store:         store,
		streamManager: streamManager,
		logger:        log,
	}
}

// Dispatch stores the notification and publishes the matching event.
// At-least-once: a consumer may see the event again after a retry
// upstream, but a dispatch failure never propagates to the caller.
func (s *NotificationService) Dispatch(ctx context.Context, eventType model.EventType, offer *model.Offer, n *model.Notification) {
	now := time.Now()
	n.ID = uuid.Must(uuid.NewV7()).String()
	n.CreatedAt = now

	if err := s.store.CreateNotification(ctx, n); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("store").Inc()
		s.logger.Error("failed to persist notification",
			zap.String("offer_id", n.OfferID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err))
		return
	}

	event := &model.NegotiationEvent{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Type:         eventType,
		OfferID:      offer.ID,
		ItemID:       offer.ItemID,
		SenderID:     n.SenderID,
		RecipientID:  n.RecipientID,
		Notification: n,
		CreatedAt:    now,
	}

	seq, err := s.streamManager.PublishEvent(ctx, event)
	if err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("publish").Inc()
		s.logger.Error("failed to publish negotiation event",
			zap.String("offer_id", offer.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
		return
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Category)).Inc()
	s.logger.Debug("notification dispatched",
		zap.String("offer_id", offer.ID),
		zap.String("recipient_id", n.RecipientID),
		zap.String("category", string(n.Category)),
		zap.Uint64("sequence", seq))
}

// List returns a recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string, limit int) (*model.ListNotificationsResponse, error) {
	notifications, unread, err := s.store.ListNotifications(ctx, recipientID, limit)
	if err != nil {
		return nil, err
	}

	return &model.ListNotificationsResponse{
		Notifications: notifications,
		Unread:        unread,
		Total:         len(notifications),
	}, nil
}

// MarkRead flags one of the actor's notifications as read. Reports
// false when the notification does not exist or is not theirs.
func (s *NotificationService) MarkRead(ctx context.Context, actorID, notificationID string) (bool, error) {
	return s.store.MarkNotificationRead(ctx, notificationID, actorID)
}
