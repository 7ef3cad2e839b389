package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/database"
	"github.com/clubmarket/negotiation-platform/internal/model"
	"github.com/clubmarket/negotiation-platform/internal/negotiation"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
	"github.com/clubmarket/negotiation-platform/pkg/metrics"
)

// NegotiationService is the offer/counter-offer state machine. Every
// operation takes the acting user explicitly; nothing is read from
// ambient request state.
type NegotiationService struct {
	store    database.Store
	notifier NotificationDispatcher
	logger   *logger.Logger
}

// NewNegotiationService creates a new negotiation service.
func NewNegotiationService(store database.Store, notifier NotificationDispatcher, log *logger.Logger) *NegotiationService {
	return &NegotiationService{
		store:    store,
		notifier: notifier,
		logger:   log,
	}
}

// IsResponseToExistingOffer finds the most recent pending offer or
// counter-offer on the item going in the opposite direction, i.e. one
// the new offer would be answering. Returns nil when the new offer
// opens a fresh thread.
func (s *NegotiationService) IsResponseToExistingOffer(ctx context.Context, itemID, senderID, recipientID string) (*model.Offer, error) {
	return s.store.LatestPendingBetween(ctx, itemID, recipientID, senderID)
}

// MakeOffer opens a negotiation action on an item. If the actor has a
// pending offer from the recipient on the same item, the new record is
// reclassified as a counter-offer linked to it.
func (s *NegotiationService) MakeOffer(ctx context.Context, actorID string, req *model.MakeOfferRequest) (*model.Offer, error) {
	if req.RecipientID == actorID {
		return nil, negotiation.NewValidation("cannot make an offer to yourself")
	}
	if req.Amount < 0 {
		return nil, negotiation.NewValidation("amount must not be negative")
	}

	item, err := s.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, negotiation.NewNotFound("item %s not found", req.ItemID)
	}

	prior, err := s.IsResponseToExistingOffer(ctx, req.ItemID, actorID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	offer := &model.Offer{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ItemID:      req.ItemID,
		SenderID:    actorID,
		RecipientID: req.RecipientID,
		Kind:        model.KindOffer,
		Amount:      req.Amount,
		Content:     req.Content,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	eventType := model.EventOfferCreated
	category := model.NotificationOfferReceived
	if prior != nil {
		// Counters link to their immediate predecessor; the full chain
		// is recovered by walking the links.
		offer.Kind = model.KindCounterOffer
		offer.OriginalOfferID = &prior.ID
		eventType = model.EventCounterCreated
		category = model.NotificationCounterReceived
	}

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}

	if prior != nil {
		if err := s.store.AcknowledgeOffer(ctx, prior.ID, now); err != nil {
			s.logger.Warn("failed to acknowledge answered offer",
				zap.String("offer_id", prior.ID), zap.Error(err))
		}
	}

	metrics.OffersTotal.WithLabelValues(string(offer.Kind)).Inc()
	s.logger.Info("offer created",
		zap.String("offer_id", offer.ID),
		zap.String("item_id", offer.ItemID),
		zap.String("kind", string(offer.Kind)),
		zap.Int64("amount", offer.Amount))

	s.notifier.Dispatch(ctx, eventType, offer, s.notification(ctx, category, offer, item, actorID, offer.RecipientID, offer.Content))

	return offer, nil
}

// CounterOffer answers a specific pending counter-offer with a new
// counter in the opposite direction.
func (s *NegotiationService) CounterOffer(ctx context.Context, actorID, originalOfferID string, req *model.CounterOfferRequest) (*model.Offer, error) {
	if req.Amount < 0 {
		return nil, negotiation.NewValidation("amount must not be negative")
	}

	orig, err := s.store.GetOffer(ctx, originalOfferID)
	if err != nil {
		return nil, err
	}
	if orig == nil {
		return nil, negotiation.NewNotFound("offer %s not found", originalOfferID)
	}
	if orig.Kind != model.KindCounterOffer {
		return nil, negotiation.NewValidation("offer %s is not a counter-offer", originalOfferID)
	}
	if actorID != orig.RecipientID {
		return nil, negotiation.NewUnauthorized("only the recipient of a counter-offer may counter it")
	}
	if orig.Status != model.StatusPending {
		return nil, negotiation.NewInvalidState("offer %s is already %s", originalOfferID, orig.Status)
	}

	item, err := s.store.GetItem(ctx, orig.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, negotiation.NewNotFound("item %s not found", orig.ItemID)
	}

	now := time.Now()
	if err := s.store.AcknowledgeOffer(ctx, orig.ID, now); err != nil {
		return nil, err
	}

	counter := &model.Offer{
		ID:              uuid.Must(uuid.NewV7()).String(),
		ItemID:          orig.ItemID,
		SenderID:        actorID,
		RecipientID:     orig.SenderID,
		Kind:            model.KindCounterOffer,
		Amount:          req.Amount,
		Content:         req.Content,
		Status:          model.StatusPending,
		OriginalOfferID: &orig.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateOffer(ctx, counter); err != nil {
		return nil, err
	}

	metrics.OffersTotal.WithLabelValues(string(model.KindCounterOffer)).Inc()
	s.logger.Info("counter-offer created",
		zap.String("offer_id", counter.ID),
		zap.String("original_offer_id", orig.ID),
		zap.Int64("amount", counter.Amount))

	s.notifier.Dispatch(ctx, model.EventCounterCreated, counter,
		s.notification(ctx, model.NotificationCounterReceived, counter, item, actorID, counter.RecipientID, counter.Content))

	return counter, nil
}

// Accept resolves a pending offer in the sender's favor. Accepting a
// counter-offer also records a confirmation so both parties hold a
// durable artifact of the agreed price.
func (s *NegotiationService) Accept(ctx context.Context, actorID, offerID string) (*model.Offer, error) {
	offer, err := s.transition(ctx, actorID, offerID, model.StatusAccepted)
	if err != nil {
		return nil, err
	}

	if offer.Kind == model.KindCounterOffer {
		now := time.Now()
		confirmation := &model.Offer{
			ID:              uuid.Must(uuid.NewV7()).String(),
			ItemID:          offer.ItemID,
			SenderID:        actorID,
			RecipientID:     offer.SenderID,
			Kind:            model.KindAccept,
			Amount:          offer.Amount,
			Status:          model.StatusAccepted,
			OriginalOfferID: &offer.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.CreateOffer(ctx, confirmation); err != nil {
			return nil, fmt.Errorf("offer accepted but confirmation record failed: %w", err)
		}
		metrics.OffersTotal.WithLabelValues(string(model.KindAccept)).Inc()
	}

	item, err := s.store.GetItem(ctx, offer.ItemID)
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, model.EventOfferAccepted, offer,
		s.notification(ctx, model.NotificationOfferAccepted, offer, item, actorID, offer.SenderID, ""))

	return offer, nil
}

// Reject resolves a pending offer against the sender, with an optional
// free-text reason carried in the notification.
func (s *NegotiationService) Reject(ctx context.Context, actorID, offerID, reason string) (*model.Offer, error) {
	offer, err := s.transition(ctx, actorID, offerID, model.StatusRejected)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, offer.ItemID)
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, model.EventOfferRejected, offer,
		s.notification(ctx, model.NotificationOfferRejected, offer, item, actorID, offer.SenderID, reason))

	return offer, nil
}

// Withdraw lets the sender retract their own pending offer.
func (s *NegotiationService) Withdraw(ctx context.Context, actorID, offerID string) (*model.Offer, error) {
	offer, err := s.transition(ctx, actorID, offerID, model.StatusWithdrawn)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, offer.ItemID)
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, model.EventOfferWithdrawn, offer,
		s.notification(ctx, model.NotificationOfferWithdrawn, offer, item, actorID, offer.RecipientID, ""))

	return offer, nil
}

// MarkReceived is the buyer's confirmation of physical transfer after
// acceptance. It is a separate mutation from Accept and is guarded
// against repeats.
func (s *NegotiationService) MarkReceived(ctx context.Context, actorID, offerID string) (*model.Offer, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, negotiation.NewNotFound("offer %s not found", offerID)
	}
	if actorID != offer.SenderID {
		return nil, negotiation.NewUnauthorized("only the buyer may confirm receipt")
	}
	if offer.Status != model.StatusAccepted {
		return nil, negotiation.NewInvalidState("offer %s is %s, not accepted", offerID, offer.Status)
	}
	if offer.MarkedAsReceived {
		return nil, negotiation.NewInvalidState("offer %s is already marked as received", offerID)
	}

	now := time.Now()
	ok, err := s.store.MarkOfferReceived(ctx, offerID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, negotiation.NewInvalidState("offer %s is already marked as received", offerID)
	}

	offer.MarkedAsReceived = true
	offer.ReceivedAt = &now
	offer.UpdatedAt = now

	metrics.TransitionsTotal.WithLabelValues("mark_received", "ok").Inc()
	s.logger.Info("item receipt confirmed",
		zap.String("offer_id", offer.ID),
		zap.String("buyer_id", actorID))

	item, err := s.store.GetItem(ctx, offer.ItemID)
	if err != nil {
		return nil, err
	}

	// The completion notification goes to the seller and enables the
	// downstream rating step.
	s.notifier.Dispatch(ctx, model.EventItemReceived, offer,
		s.notification(ctx, model.NotificationItemReceived, offer, item, actorID, offer.RecipientID, ""))

	return offer, nil
}

// Get returns a single offer visible to the actor.
func (s *NegotiationService) Get(ctx context.Context, actorID, offerID string) (*model.Offer, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, negotiation.NewNotFound("offer %s not found", offerID)
	}
	if actorID != offer.SenderID && actorID != offer.RecipientID {
		return nil, negotiation.NewUnauthorized("offer %s does not involve you", offerID)
	}
	return offer, nil
}

// List returns the actor's offers, newest first.
func (s *NegotiationService) List(ctx context.Context, actorID string, limit, offset int) (*model.ListOffersResponse, error) {
	offers, total, err := s.store.ListOffersForUser(ctx, actorID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &model.ListOffersResponse{
		Offers:  offers,
		Total:   total,
		HasMore: offset+len(offers) < total,
	}, nil
}

// Chain returns every record connected to the given offer through
// OriginalOfferID links, oldest first, regardless of which record was
// used as the entry point. Read-only; tolerates concurrent extension.
func (s *NegotiationService) Chain(ctx context.Context, offerID string) ([]model.Offer, error) {
	entry, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, negotiation.NewNotFound("offer %s not found", offerID)
	}

	collected := map[string]model.Offer{entry.ID: *entry}

	// Walk backward to the chain root. Links point strictly backward
	// in time, but the visited set guards against malformed data.
	cur := entry
	for cur.OriginalOfferID != nil {
		prev, err := s.store.GetOffer(ctx, *cur.OriginalOfferID)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			break
		}
		if _, seen := collected[prev.ID]; seen {
			break
		}
		collected[prev.ID] = *prev
		cur = prev
	}

	// Expand forward until closure: every offer replying to a known
	// chain member is part of the chain.
	frontier := make([]string, 0, len(collected))
	for id := range collected {
		frontier = append(frontier, id)
	}
	for len(frontier) > 0 {
		replies, err := s.store.GetRepliesTo(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, reply := range replies {
			if _, seen := collected[reply.ID]; seen {
				continue
			}
			collected[reply.ID] = reply
			frontier = append(frontier, reply.ID)
		}
	}

	chain := make([]model.Offer, 0, len(collected))
	for _, offer := range collected {
		chain = append(chain, offer)
	}
	sort.Slice(chain, func(i, j int) bool {
		if !chain[i].CreatedAt.Equal(chain[j].CreatedAt) {
			return chain[i].CreatedAt.Before(chain[j].CreatedAt)
		}
		return chain[i].ID < chain[j].ID
	})

	return chain, nil
}

// transition applies one of the pending-exit transitions with the
// correct authorization for the target status. The store performs the
// status check and the write as a single conditional update, so of two
// racing transitions exactly one wins.
func (s *NegotiationService) transition(ctx context.Context, actorID, offerID string, to model.OfferStatus) (*model.Offer, error) {
	action := transitionAction(to)

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, negotiation.NewNotFound("offer %s not found", offerID)
	}

	if to == model.StatusWithdrawn {
		if actorID != offer.SenderID {
			return nil, negotiation.NewUnauthorized("only the sender may withdraw an offer")
		}
	} else if actorID != offer.RecipientID {
		return nil, negotiation.NewUnauthorized("only the recipient may %s an offer", action)
	}

	if offer.Status != model.StatusPending {
		return nil, negotiation.NewInvalidState("offer %s is already %s", offerID, offer.Status)
	}

	now := time.Now()
	ok, err := s.store.UpdateOfferStatus(ctx, offerID, model.StatusPending, to, now)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(action, "error").Inc()
		return nil, err
	}
	if !ok {
		// Lost the race: another transition resolved the offer between
		// our read and the conditional write.
		metrics.TransitionsTotal.WithLabelValues(action, "conflict").Inc()
		return nil, negotiation.NewInvalidState("offer %s is no longer pending", offerID)
	}

	offer.Status = to
	offer.UpdatedAt = now

	metrics.TransitionsTotal.WithLabelValues(action, "ok").Inc()
	s.logger.Info("offer transitioned",
		zap.String("offer_id", offer.ID),
		zap.String("status", string(to)),
		zap.String("actor_id", actorID))

	return offer, nil
}

func transitionAction(to model.OfferStatus) string {
	switch to {
	case model.StatusAccepted:
		return "accept"
	case model.StatusRejected:
		return "reject"
	case model.StatusWithdrawn:
		return "withdraw"
	default:
		return string(to)
	}
}

// notification assembles the dispatch payload. Amount, counterpart
// display name and item title are always present; downstream consumers
// depend on all three.
func (s *NegotiationService) notification(ctx context.Context, category model.NotificationCategory, offer *model.Offer, item *model.Item, actorID, recipientID, message string) *model.Notification {
	senderName := actorID
	if user, err := s.store.GetUser(ctx, actorID); err != nil {
		s.logger.Warn("failed to resolve sender name", zap.String("user_id", actorID), zap.Error(err))
	} else if user != nil {
		senderName = user.DisplayName
	}

	itemTitle := ""
	if item != nil {
		itemTitle = item.Title
	}

	return &model.Notification{
		RecipientID: recipientID,
		SenderID:    actorID,
		Category:    category,
		OfferID:     offer.ID,
		OfferAmount: offer.Amount,
		SenderName:  senderName,
		ItemTitle:   itemTitle,
		Message:     message,
	}
}
