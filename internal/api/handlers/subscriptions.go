package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/service"
	"github.com/go-chi/chi/v5"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	writeError          middleware.ErrorWriter
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService, logger *log.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		writeError:          ErrorWriter(logger),
	}
}

func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.writeError)
	if !ok {
		return
	}

	result, err := h.subscriptionService.Toggle(r.Context(), caller.User.ID, chi.URLParam(r, "channelID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := "Unsubscribed successfully"
	if result.IsSubscribed {
		message = "Subscribed successfully"
	}
	respond(w, http.StatusOK, message, result)
}

func (h *SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	users, err := h.subscriptionService.ListSubscribers(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Subscribers fetched successfully", toOwners(users))
}

func (h *SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.subscriptionService.ListSubscribedChannels(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Subscribed channels fetched successfully", toOwners(channels))
}
