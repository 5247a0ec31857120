package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/views"
)

// videoUploadLimit bounds the in-memory portion of multipart video uploads;
// larger bodies spill to disk.
const videoUploadLimit = 64 << 20

// VideoHandler implements video publishing, CRUD, and listing endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Views   ViewComposer
	Media   MediaStorage
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos with pagination, search, and sorting.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()

	params := views.VideoListParams{
		Page:     queryInt(q.Get("page"), 1),
		Limit:    queryInt(q.Get("limit"), 10),
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("sortType") != "asc",
	}
	if owner := q.Get("userId"); owner != "" {
		id, err := parseID(owner, "userId")
		if err != nil {
			return err
		}
		params.OwnerID = id
	}
	if viewer, ok := auth.IdentityFromContext(r.Context()); ok {
		params.ViewerID = viewer.ID
	}

	videos, err := h.Views.ListVideos(r.Context(), params)
	if err != nil {
		return fmt.Errorf("list videos: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, videos, "Videos fetched successfully")
	return nil
}

// Publish handles POST /api/v1/videos: a multipart upload of the video file
// and thumbnail plus title, description, and duration fields.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	if err := r.ParseMultipartForm(videoUploadLimit); err != nil {
		return badRequest("Invalid multipart payload")
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		return badRequest("Title and description are required")
	}

	duration, err := strconv.ParseFloat(r.FormValue("duration"), 64)
	if err != nil || duration <= 0 {
		return badRequest("Invalid duration")
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		return badRequest("Video file is required")
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		return badRequest("Thumbnail is required")
	}
	defer thumbFile.Close()

	videoID := uuid.NewString()

	videoAsset, err := h.Media.Save(r.Context(), fmt.Sprintf("videos/%s/%s", videoID, videoHeader.Filename), videoFile)
	if err != nil {
		return fmt.Errorf("upload video file: %w", err)
	}
	thumbAsset, err := h.Media.Save(r.Context(), fmt.Sprintf("thumbnails/%s/%s", videoID, thumbHeader.Filename), thumbFile)
	if err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}

	now := h.now()
	video := models.Video{
		ID:          videoID,
		VideoFile:   videoAsset,
		Thumbnail:   thumbAsset,
		Title:       title,
		Description: description,
		Duration:    duration,
		OwnerID:     user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(r.Context(), video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	respond(r.Context(), w, http.StatusCreated, video, "Video published successfully")
	return nil
}

// Get handles GET /api/v1/videos/{videoId}. Fetching a published video as
// an authenticated viewer bumps the view counter and records watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}

	viewer, authed := auth.IdentityFromContext(r.Context())
	if !video.IsPublished && (!authed || !auth.Owns(video.OwnerID, viewer.ID)) {
		return notFound("Video not found")
	}

	if authed && video.IsPublished {
		logger := logging.FromContext(r.Context())
		if err := h.Videos.IncrementViews(r.Context(), video.ID); err != nil {
			logger.Warn("increment views", "videoId", video.ID, "error", err)
		} else {
			video.Views++
		}
		if err := h.Users.RecordWatch(r.Context(), viewer.ID, video.ID); err != nil {
			logger.Warn("record watch history", "videoId", video.ID, "error", err)
		}
	}

	respond(r.Context(), w, http.StatusOK, video, "Video fetched successfully")
	return nil
}

// Update handles PATCH /api/v1/videos/{videoId}: a multipart payload with
// optional title, description, and replacement thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}
	if !auth.Owns(video.OwnerID, user.ID) {
		return forbidden("You are not allowed to modify this video")
	}

	if err := r.ParseMultipartForm(videoUploadLimit); err != nil {
		return badRequest("Invalid multipart payload")
	}

	var title, description *string
	if v := strings.TrimSpace(r.FormValue("title")); v != "" {
		title = &v
	}
	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		description = &v
	}

	var thumbnail *models.MediaAsset
	previousThumb := video.Thumbnail
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		asset, err := h.Media.Save(r.Context(), fmt.Sprintf("thumbnails/%s/%s", video.ID, thumbHeader.Filename), thumbFile)
		if err != nil {
			return fmt.Errorf("upload thumbnail: %w", err)
		}
		thumbnail = &asset
	}

	if title == nil && description == nil && thumbnail == nil {
		return badRequest("At least one field must be updated")
	}

	updated, err := h.Videos.Update(r.Context(), id, title, description, thumbnail)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if thumbnail != nil && previousThumb.StorageID != "" {
		if err := h.Media.Delete(r.Context(), previousThumb.StorageID); err != nil {
			logging.FromContext(r.Context()).Warn("delete replaced thumbnail", "storageId", previousThumb.StorageID, "error", err)
		}
	}

	respond(r.Context(), w, http.StatusOK, updated, "Video updated successfully")
	return nil
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}
	if !auth.Owns(video.OwnerID, user.ID) {
		return forbidden("You are not allowed to delete this video")
	}

	if err := h.Videos.Delete(r.Context(), id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	logger := logging.FromContext(r.Context())
	for _, storageID := range []string{video.VideoFile.StorageID, video.Thumbnail.StorageID} {
		if storageID == "" {
			continue
		}
		if err := h.Media.Delete(r.Context(), storageID); err != nil {
			logger.Warn("delete video asset", "storageId", storageID, "error", err)
		}
	}

	respond(r.Context(), w, http.StatusOK, struct{}{}, "Video deleted successfully")
	return nil
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "videoId"), "videoId")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return fmt.Errorf("find video: %w", err)
	}
	if !auth.Owns(video.OwnerID, user.ID) {
		return forbidden("You are not allowed to modify this video")
	}

	updated, err := h.Videos.TogglePublish(r.Context(), id)
	if err != nil {
		return fmt.Errorf("toggle publish: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Publish status toggled")
	return nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
