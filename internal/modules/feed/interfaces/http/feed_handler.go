package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/gateway/middleware"
	"github.com/saransh1220/portal-notify/internal/modules/feed/application"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
	"github.com/saransh1220/portal-notify/internal/modules/feed/infrastructure/hub"
	"github.com/saransh1220/portal-notify/internal/shared/utils"
)

type FeedHandler struct {
	service   *application.FeedService
	hub       *hub.Hub
	heartbeat time.Duration
	logger    zerolog.Logger
}

func NewFeedHandler(service *application.FeedService, h *hub.Hub, heartbeat time.Duration, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{service: service, hub: h, heartbeat: heartbeat, logger: logger}
}

func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	feed, err := h.service.Feed(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("listing notifications")
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch notifications", nil)
		return
	}

	utils.WriteJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := h.service.MarkRead(r.Context(), r.PathValue("id"), userID); err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			utils.WriteError(w, http.StatusNotFound, "notification not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("marking notification read")
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark notification as read", nil)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *FeedHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	n, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("marking all notifications read")
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark all notifications as read", nil)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

// Create records an application status change. The target student
// defaults to the caller when user_id is omitted.
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var change domain.StatusChange
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&change); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if change.UserID == "" {
		change.UserID = callerID
	}

	entry, err := h.service.Create(r.Context(), change)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidChange) {
			utils.WriteError(w, http.StatusBadRequest, "invalid status change", err)
			return
		}
		h.logger.Error().Err(err).Msg("creating notification")
		utils.WriteError(w, http.StatusInternalServerError, "failed to create notification", nil)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, entry.Notification())
}

// Stream serves the caller's notifications as server-sent events.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	hub.ServeSSE(h.hub, w, r, userID, h.heartbeat)
}

// Subscribe serves the caller's notifications over a WebSocket.
func (h *FeedHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	hub.ServeWs(h.hub, w, r, userID)
}
