package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cliptube/backend/internal/repositories"
)

// LikeHandler implements the like toggle and liked-video listing endpoints.
type LikeHandler struct {
	Likes LikeStore
	Views ViewComposer
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, "videoId", h.Likes.ToggleVideo)
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, "commentId", h.Likes.ToggleComment)
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, "tweetId", h.Likes.ToggleTweet)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, param string,
	fn func(ctx context.Context, targetID, likedBy string) (bool, error)) error {

	user, err := identity(r)
	if err != nil {
		return err
	}
	targetID, err := parseID(chi.URLParam(r, param), param)
	if err != nil {
		return err
	}

	liked, err := fn(r.Context(), targetID, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Target not found")
		}
		return fmt.Errorf("toggle like: %w", err)
	}

	message := "Unliked successfully"
	if liked {
		message = "Liked successfully"
	}
	respond(r.Context(), w, http.StatusOK, toggleResponse{Toggled: liked}, message)
	return nil
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	videos, err := h.Views.LikedVideos(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("liked videos: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, videos, "Liked videos fetched successfully")
	return nil
}

type toggleResponse struct {
	Toggled bool `json:"toggled"`
}
