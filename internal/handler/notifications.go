package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clubmarket/negotiation-platform/internal/middleware"
	"github.com/clubmarket/negotiation-platform/internal/service"
	"github.com/clubmarket/negotiation-platform/pkg/logger"
)

// NotificationHandler handles notification feed endpoints.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *logger.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(svc *service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	resp, err := h.service.List(ctx, actorID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetActorID(ctx)
	notificationID := chi.URLParam(r, "id")

	if err := middleware.ValidateNotificationID(notificationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.service.MarkRead(ctx, actorID, notificationID)
	if err != nil {
		h.logger.Error("failed to mark notification read", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
