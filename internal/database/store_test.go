package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/model"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	log := &logger.Logger{Logger: zap.NewNop()}
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { CloseDB(db, log) })

	return NewStore(db, log)
}

func seedParties(t *testing.T, store Store) (buyerID, sellerID, itemID string) {
	t.Helper()
	ctx := context.Background()

	buyerID = uuid.Must(uuid.NewV7()).String()
	sellerID = uuid.Must(uuid.NewV7()).String()
	itemID = uuid.Must(uuid.NewV7()).String()

	if err := store.CreateUser(ctx, &model.User{ID: buyerID, DisplayName: "Alice"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, &model.User{ID: sellerID, DisplayName: "Bob"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateItem(ctx, &model.Item{ID: itemID, SellerID: sellerID, Title: "Training bike"}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return buyerID, sellerID, itemID
}

func insertOffer(t *testing.T, store Store, itemID, senderID, recipientID string, status model.OfferStatus) *model.Offer {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	offer := &model.Offer{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ItemID:      itemID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Kind:        model.KindOffer,
		Amount:      1500,
		Content:     "fair price?",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateOffer(context.Background(), offer); err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	return offer
}

func TestOfferRoundTrip(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	offer := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)

	got, err := store.GetOffer(ctx, offer.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if got == nil {
		t.Fatal("GetOffer returned nil for existing offer")
	}
	if got.ID != offer.ID || got.Amount != offer.Amount || got.Content != offer.Content {
		t.Errorf("got %+v, want %+v", got, offer)
	}
	if got.Kind != model.KindOffer || got.Status != model.StatusPending {
		t.Errorf("kind/status = %s/%s", got.Kind, got.Status)
	}
	if got.OriginalOfferID != nil {
		t.Errorf("original_offer_id = %v, want nil", *got.OriginalOfferID)
	}

	missing, err := store.GetOffer(ctx, uuid.Must(uuid.NewV7()).String())
	if err != nil {
		t.Fatalf("GetOffer (missing): %v", err)
	}
	if missing != nil {
		t.Error("GetOffer returned a record for an unknown id")
	}
}

func TestUpdateOfferStatusCompareAndSet(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	offer := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)
	now := time.Now().UTC()

	ok, err := store.UpdateOfferStatus(ctx, offer.ID, model.StatusPending, model.StatusAccepted, now)
	if err != nil {
		t.Fatalf("UpdateOfferStatus: %v", err)
	}
	if !ok {
		t.Fatal("first transition lost on an unresolved offer")
	}

	// The offer is no longer pending, so a second transition must lose.
	ok, err = store.UpdateOfferStatus(ctx, offer.ID, model.StatusPending, model.StatusRejected, now)
	if err != nil {
		t.Fatalf("UpdateOfferStatus (second): %v", err)
	}
	if ok {
		t.Fatal("second transition won against a resolved offer")
	}

	got, err := store.GetOffer(ctx, offer.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Errorf("status = %s, want %s", got.Status, model.StatusAccepted)
	}
}

func TestMarkOfferReceivedGuard(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()
	now := time.Now().UTC()

	pending := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)
	ok, err := store.MarkOfferReceived(ctx, pending.ID, now)
	if err != nil {
		t.Fatalf("MarkOfferReceived: %v", err)
	}
	if ok {
		t.Error("marking succeeded on a pending offer")
	}

	accepted := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusAccepted)
	ok, err = store.MarkOfferReceived(ctx, accepted.ID, now)
	if err != nil {
		t.Fatalf("MarkOfferReceived: %v", err)
	}
	if !ok {
		t.Fatal("marking failed on an accepted offer")
	}

	ok, err = store.MarkOfferReceived(ctx, accepted.ID, now)
	if err != nil {
		t.Fatalf("MarkOfferReceived (repeat): %v", err)
	}
	if ok {
		t.Error("second marking succeeded")
	}

	got, err := store.GetOffer(ctx, accepted.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if !got.MarkedAsReceived || got.ReceivedAt == nil {
		t.Error("received flag not persisted")
	}
}

func TestLatestPendingBetween(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	// Resolved offers must not count.
	insertOffer(t, store, itemID, buyerID, sellerID, model.StatusRejected)

	got, err := store.LatestPendingBetween(ctx, itemID, buyerID, sellerID)
	if err != nil {
		t.Fatalf("LatestPendingBetween: %v", err)
	}
	if got != nil {
		t.Fatal("found a resolved offer")
	}

	first := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)
	time.Sleep(1100 * time.Millisecond)
	second := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)

	got, err = store.LatestPendingBetween(ctx, itemID, buyerID, sellerID)
	if err != nil {
		t.Fatalf("LatestPendingBetween: %v", err)
	}
	if got == nil {
		t.Fatal("no pending offer found")
	}
	if got.ID != second.ID {
		t.Errorf("latest = %s, want the newer %s (older: %s)", got.ID, second.ID, first.ID)
	}

	// Direction matters: nothing pending from seller to buyer.
	got, err = store.LatestPendingBetween(ctx, itemID, sellerID, buyerID)
	if err != nil {
		t.Fatalf("LatestPendingBetween (reverse): %v", err)
	}
	if got != nil {
		t.Error("found a pending offer in the opposite direction")
	}
}

func TestGetRepliesTo(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	root := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)

	now := time.Now().UTC().Truncate(time.Second)
	reply := &model.Offer{
		ID:              uuid.Must(uuid.NewV7()).String(),
		ItemID:          itemID,
		SenderID:        sellerID,
		RecipientID:     buyerID,
		Kind:            model.KindCounterOffer,
		Amount:          1800,
		Status:          model.StatusPending,
		OriginalOfferID: &root.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateOffer(ctx, reply); err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	replies, err := store.GetRepliesTo(ctx, []string{root.ID})
	if err != nil {
		t.Fatalf("GetRepliesTo: %v", err)
	}
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Errorf("replies = %v, want exactly the counter", replies)
	}

	replies, err = store.GetRepliesTo(ctx, nil)
	if err != nil {
		t.Fatalf("GetRepliesTo (empty): %v", err)
	}
	if len(replies) != 0 {
		t.Errorf("replies for no ids = %d, want 0", len(replies))
	}
}

func TestAcknowledgeOffer(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	offer := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)
	if err := store.AcknowledgeOffer(ctx, offer.ID, time.Now().UTC()); err != nil {
		t.Fatalf("AcknowledgeOffer: %v", err)
	}

	got, err := store.GetOffer(ctx, offer.ID)
	if err != nil {
		t.Fatalf("GetOffer: %v", err)
	}
	if !got.Acknowledged {
		t.Error("acknowledged flag not persisted")
	}
	if got.Status != model.StatusPending {
		t.Errorf("status = %s, acknowledging must not touch status", got.Status)
	}
}

func TestNotifications(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	offer := insertOffer(t, store, itemID, buyerID, sellerID, model.StatusPending)

	n := &model.Notification{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RecipientID: sellerID,
		SenderID:    buyerID,
		Category:    model.NotificationOfferReceived,
		OfferID:     offer.ID,
		OfferAmount: offer.Amount,
		SenderName:  "Alice",
		ItemTitle:   "Training bike",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	notifications, unread, err := store.ListNotifications(ctx, sellerID, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notifications) != 1 || unread != 1 {
		t.Fatalf("got %d notifications, %d unread, want 1 and 1", len(notifications), unread)
	}
	if notifications[0].Category != model.NotificationOfferReceived {
		t.Errorf("category = %s", notifications[0].Category)
	}

	// Another recipient cannot mark it read.
	ok, err := store.MarkNotificationRead(ctx, n.ID, buyerID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if ok {
		t.Error("notification marked read by the wrong recipient")
	}

	ok, err = store.MarkNotificationRead(ctx, n.ID, sellerID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if !ok {
		t.Fatal("owner could not mark notification read")
	}

	_, unread, err = store.ListNotifications(ctx, sellerID, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d after marking read", unread)
	}
}

func TestListOffersForUser(t *testing.T) {
	store := newTestStore(t)
	buyerID, sellerID, itemID := seedParties(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		insertOffer(t, store, itemID, buyerID, sellerID, model.StatusRejected)
	}

	offers, total, err := store.ListOffersForUser(ctx, buyerID, 2, 0)
	if err != nil {
		t.Fatalf("ListOffersForUser: %v", err)
	}
	if total != 3 || len(offers) != 2 {
		t.Errorf("total = %d, page = %d, want 3 and 2", total, len(offers))
	}

	offers, total, err = store.ListOffersForUser(ctx, sellerID, 10, 0)
	if err != nil {
		t.Fatalf("ListOffersForUser (seller): %v", err)
	}
	if total != 3 || len(offers) != 3 {
		t.Errorf("seller sees total = %d, page = %d, want 3 and 3", total, len(offers))
	}

	stranger := uuid.Must(uuid.NewV7()).String()
	_, total, err = store.ListOffersForUser(ctx, stranger, 10, 0)
	if err != nil {
		t.Fatalf("ListOffersForUser (stranger): %v", err)
	}
	if total != 0 {
		t.Errorf("stranger sees total = %d, want 0", total)
	}
}
