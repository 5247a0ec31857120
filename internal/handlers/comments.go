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

// CommentHandler implements comment listing and CRUD endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewComposer
	NowFunc  func() time.Time
}

// ListForVideo handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) error {
	videoID, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	q := r.URL.Query()
	comments, err := h.Views.ListComments(r.Context(), videoID, queryInt(q.Get("page"), 1), queryInt(q.Get("limit"), 10))
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, comments, "Comments fetched successfully")
	return nil
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	videoID, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return badRequest("Content is required")
	}

	if _, err := h.Videos.FindByID(r.Context(), videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   req.Content,
		VideoID:   videoID,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(r.Context(), comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	respond(r.Context(), w, http.StatusCreated, comment, "Comment added successfully")
	return nil
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "commentId"), "commentId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return badRequest("Content is required")
	}

	comment, err := h.Comments.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Comment not found")
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if !auth.Owns(comment.OwnerID, user.ID) {
		return forbidden("You are not allowed to modify this comment")
	}

	updated, err := h.Comments.UpdateContent(r.Context(), id, req.Content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Comment updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "commentId"), "commentId")
	if err != nil {
		return err
	}

	comment, err := h.Comments.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Comment not found")
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if !auth.Owns(comment.OwnerID, user.ID) {
		return forbidden("You are not allowed to delete this comment")
	}

	if err := h.Comments.Delete(r.Context(), id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, struct{}{}, "Comment deleted successfully")
	return nil
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	Content string `json:"content"`
}
