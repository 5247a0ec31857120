package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DashboardHandler exposes the creator dashboard views for the signed-in
// channel owner.
type DashboardHandler struct {
	Views ViewComposer
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	stats, err := h.Views.ChannelStats(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("channel stats: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, stats, "Channel stats fetched successfully")
	return nil
}

// Videos handles GET /api/v1/dashboard/videos/{userId}. Unlike the public
// listing it includes the channel's unpublished videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) error {
	userID, err := parseID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		return err
	}

	videos, err := h.Views.ChannelVideos(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("channel videos: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, videos, "Channel videos fetched successfully")
	return nil
}
