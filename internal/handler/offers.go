// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/middleware"
	"github.com/clubmarket/negotiation-platform/internal/model"
	"github.com/clubmarket/negotiation-platform/internal/service"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
)

// OfferHandler handles negotiation endpoints.
type OfferHandler struct {
	service *service.NegotiationService
	logger  *logger.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(svc *service.NegotiationService, log *logger.Logger) *OfferHandler {
	return &OfferHandler{
		service: svc,
		logger:  log,
	}
}

// Make handles POST /api/v1/offers
func (h *OfferHandler) Make(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)

	var req model.MakeOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.MakeOffer(ctx, actorID, &req)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to make offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to make offer")
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// List handles GET /api/v1/offers
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	resp, err := h.service.List(ctx, actorID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list offers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list offers")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/offers/:id
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.Get(ctx, actorID, offerID)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to get offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get offer")
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Chain handles GET /api/v1/offers/:id/chain
func (h *OfferHandler) Chain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chain, err := h.service.Chain(ctx, offerID)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to get negotiation chain", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get negotiation chain")
		return
	}

	writeJSON(w, http.StatusOK, &model.ChainResponse{
		Offers: chain,
		Length: len(chain),
	})
}

// Counter handles POST /api/v1/offers/:id/counter
func (h *OfferHandler) Counter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.CounterOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	counter, err := h.service.CounterOffer(ctx, actorID, offerID, &req)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to counter offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to counter offer")
		return
	}

	writeJSON(w, http.StatusCreated, counter)
}

// Accept handles POST /api/v1/offers/:id/accept
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.Accept(ctx, actorID, offerID)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to accept offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to accept offer")
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Reject handles POST /api/v1/offers/:id/reject
func (h *OfferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Body is optional; an empty body means no reason given.
	var req model.RejectOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.Reject(ctx, actorID, offerID, req.Reason)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to reject offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reject offer")
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Withdraw handles POST /api/v1/offers/:id/withdraw
func (h *OfferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.Withdraw(ctx, actorID, offerID)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to withdraw offer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to withdraw offer")
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// MarkReceived handles POST /api/v1/offers/:id/received
func (h *OfferHandler) MarkReceived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	offerID := chi.URLParam(r, "id")

	if err := middleware.ValidateOfferID(offerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := h.service.MarkReceived(ctx, actorID, offerID)
	if err != nil {
		if writeNegotiationError(w, err) {
			return
		}
		h.logger.Error("failed to mark offer received", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to mark offer received")
		return
	}

	writeJSON(w, http.StatusOK, offer)
}
