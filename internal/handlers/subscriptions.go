package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cliptube/backend/internal/repositories"
)

// SubscriptionHandler implements subscription toggling and listing endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	Views         ViewComposer
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	channelID, err := parseID(chi.URLParam(r, "channelId"), "channelId")
	if err != nil {
		return err
	}
	if channelID == user.ID {
		return badRequest("You cannot subscribe to your own channel")
	}

	if _, err := h.Users.FindByID(r.Context(), channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Channel not found")
		}
		return fmt.Errorf("find channel: %w", err)
	}

	subscribed, err := h.Subscriptions.Toggle(r.Context(), user.ID, channelID)
	if err != nil {
		return fmt.Errorf("toggle subscription: %w", err)
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(r.Context(), w, http.StatusOK, toggleResponse{Toggled: subscribed}, message)
	return nil
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) error {
	channelID, err := parseID(chi.URLParam(r, "channelId"), "channelId")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(r.Context(), channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Channel not found")
		}
		return fmt.Errorf("find channel: %w", err)
	}

	subscribers, err := h.Views.ChannelSubscribers(r.Context(), channelID)
	if err != nil {
		return fmt.Errorf("channel subscribers: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, subscribers, "Subscribers fetched successfully")
	return nil
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) error {
	subscriberID, err := parseID(chi.URLParam(r, "subscriberId"), "subscriberId")
	if err != nil {
		return err
	}

	if _, err := h.Users.FindByID(r.Context(), subscriberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Subscriber not found")
		}
		return fmt.Errorf("find subscriber: %w", err)
	}

	channels, err := h.Views.SubscribedChannels(r.Context(), subscriberID)
	if err != nil {
		return fmt.Errorf("subscribed channels: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, channels, "Subscribed channels fetched successfully")
	return nil
}
