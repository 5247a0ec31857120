package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// TweetHandler implements the short text post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return badRequest("Content is required")
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		Content:   req.Content,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(r.Context(), tweet); err != nil {
		return fmt.Errorf("create tweet: %w", err)
	}

	respond(r.Context(), w, http.StatusCreated, tweet, "Tweet created successfully")
	return nil
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := parseID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		return err
	}

	tweets, err := h.Tweets.ListByOwner(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("list tweets: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, tweets, "Tweets fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	tweet, err := h.ownedTweet(r, user)
	if err != nil {
		return err
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return badRequest("Content is required")
	}

	updated, err := h.Tweets.UpdateContent(r.Context(), tweet.ID, req.Content)
	if err != nil {
		return fmt.Errorf("update tweet: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Tweet updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	tweet, err := h.ownedTweet(r, user)
	if err != nil {
		return err
	}

	if err := h.Tweets.Delete(r.Context(), tweet.ID); err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, struct{}{}, "Tweet deleted successfully")
	return nil
}

func (h TweetHandler) ownedTweet(r *http.Request, user models.User) (models.Tweet, error) {
	tweetID, err := parseID(chi.URLParam(r, "tweetId"), "tweetId")
	if err != nil {
		return models.Tweet{}, err
	}

	tweet, err := h.Tweets.FindByID(r.Context(), tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Tweet{}, notFound("Tweet not found")
		}
		return models.Tweet{}, fmt.Errorf("find tweet: %w", err)
	}
	if !auth.Owns(tweet.OwnerID, user.ID) {
		return models.Tweet{}, forbidden("You do not own this tweet")
	}
	return tweet, nil
}
