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

// PlaylistHandler implements playlist CRUD and membership endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	NowFunc   func() time.Time
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return badRequest("Name and description are required")
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(r.Context(), playlist); err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusCreated, playlist, "Playlist created successfully")
	return nil
}

// Get handles GET /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) error {
	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlistId")
	if err != nil {
		return err
	}

	playlist, err := h.Playlists.FindByID(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Playlist not found")
		}
		return fmt.Errorf("find playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, playlist, "Playlist fetched successfully")
	return nil
}

// ListByUser handles GET /api/v1/playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := parseID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		return err
	}

	playlists, err := h.Playlists.ListByOwner(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, playlists, "Playlists fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	playlist, err := h.ownedPlaylist(r, user)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return badRequest("Name cannot be empty")
		}
		req.Name = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			return badRequest("Description cannot be empty")
		}
		req.Description = &trimmed
	}
	if req.Name == nil && req.Description == nil {
		return badRequest("At least one field is required")
	}

	updated, err := h.Playlists.Update(r.Context(), playlist.ID, req.Name, req.Description)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Playlist updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	playlist, err := h.ownedPlaylist(r, user)
	if err != nil {
		return err
	}

	if err := h.Playlists.Delete(r.Context(), playlist.ID); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, struct{}{}, "Playlist deleted successfully")
	return nil
}

// AddVideo handles PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	playlist, videoID, err := h.membershipTarget(r, user)
	if err != nil {
		return err
	}

	if _, err := h.Videos.FindByID(r.Context(), videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}

	if err := h.Playlists.AddVideo(r.Context(), playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return conflict("Video already in playlist")
		}
		return fmt.Errorf("add video to playlist: %w", err)
	}

	updated, err := h.Playlists.FindByID(r.Context(), playlist.ID)
	if err != nil {
		return fmt.Errorf("reload playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Video added to playlist successfully")
	return nil
}

// RemoveVideo handles PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	playlist, videoID, err := h.membershipTarget(r, user)
	if err != nil {
		return err
	}

	if err := h.Playlists.RemoveVideo(r.Context(), playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not in playlist")
		}
		return fmt.Errorf("remove video from playlist: %w", err)
	}

	updated, err := h.Playlists.FindByID(r.Context(), playlist.ID)
	if err != nil {
		return fmt.Errorf("reload playlist: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Video removed from playlist successfully")
	return nil
}

func (h PlaylistHandler) ownedPlaylist(r *http.Request, user models.User) (models.Playlist, error) {
	playlistID, err := parseID(chi.URLParam(r, "playlistId"), "playlistId")
	if err != nil {
		return models.Playlist{}, err
	}

	playlist, err := h.Playlists.FindByID(r.Context(), playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, notFound("Playlist not found")
		}
		return models.Playlist{}, fmt.Errorf("find playlist: %w", err)
	}
	if !auth.Owns(playlist.OwnerID, user.ID) {
		return models.Playlist{}, forbidden("You do not own this playlist")
	}
	return playlist, nil
}

func (h PlaylistHandler) membershipTarget(r *http.Request, user models.User) (models.Playlist, string, error) {
	playlist, err := h.ownedPlaylist(r, user)
	if err != nil {
		return models.Playlist{}, "", err
	}
	videoID, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return models.Playlist{}, "", err
	}
	return playlist, videoID, nil
}
