package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
)

func TestPlaylistHandlerCreate(t *testing.T) {
	store := newFakePlaylistStore()
	handler := PlaylistHandler{Playlists: store}
	owner := models.User{ID: uuid.NewString()}

	body, err := json.Marshal(playlistRequest{Name: "Favourites", Description: "The good stuff"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/playlist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handle(handler.Create)(rec, authedRequest(req, owner))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(store.playlists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(store.playlists))
	}
	for _, playlist := range store.playlists {
		if playlist.OwnerID != owner.ID || playlist.Name != "Favourites" {
			t.Fatalf("unexpected playlist: %+v", playlist)
		}
		if playlist.VideoIDs == nil || len(playlist.VideoIDs) != 0 {
			t.Fatalf("expected empty video list, got %v", playlist.VideoIDs)
		}
		if playlist.CreatedAt.IsZero() || playlist.UpdatedAt.IsZero() {
			t.Fatalf("expected both timestamps set, got %+v", playlist)
		}
	}
}

func addPlaylistVideo(t *testing.T, handler PlaylistHandler, user models.User, playlistID, videoID string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/add/"+videoID+"/"+playlistID, nil)
	req = withURLParams(req, map[string]string{"playlistId": playlistID, "videoId": videoID})
	rec := httptest.NewRecorder()

	handle(handler.AddVideo)(rec, authedRequest(req, user))
	return rec.Code
}

func TestPlaylistHandlerAddVideoDuplicate(t *testing.T) {
	playlists := newFakePlaylistStore()
	videos := newFakeVideoStore()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos}

	owner := models.User{ID: uuid.NewString()}
	playlistID := uuid.NewString()
	videoID := uuid.NewString()
	playlists.playlists[playlistID] = models.Playlist{ID: playlistID, OwnerID: owner.ID}
	videos.videos[videoID] = models.Video{ID: videoID, OwnerID: owner.ID}

	if code := addPlaylistVideo(t, handler, owner, playlistID, videoID); code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, code)
	}
	if code := addPlaylistVideo(t, handler, owner, playlistID, videoID); code != http.StatusConflict {
		t.Fatalf("expected status %d on duplicate add, got %d", http.StatusConflict, code)
	}
	if got := playlists.playlists[playlistID].VideoIDs; len(got) != 1 {
		t.Fatalf("expected single playlist entry, got %v", got)
	}
}

func TestPlaylistHandlerAddVideoRejectsNonOwner(t *testing.T) {
	playlists := newFakePlaylistStore()
	videos := newFakeVideoStore()
	handler := PlaylistHandler{Playlists: playlists, Videos: videos}

	playlistID := uuid.NewString()
	videoID := uuid.NewString()
	playlists.playlists[playlistID] = models.Playlist{ID: playlistID, OwnerID: uuid.NewString()}
	videos.videos[videoID] = models.Video{ID: videoID}

	intruder := models.User{ID: uuid.NewString()}
	if code := addPlaylistVideo(t, handler, intruder, playlistID, videoID); code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, code)
	}
}

func TestPlaylistHandlerRemoveVideoMissing(t *testing.T) {
	playlists := newFakePlaylistStore()
	handler := PlaylistHandler{Playlists: playlists}

	owner := models.User{ID: uuid.NewString()}
	playlistID := uuid.NewString()
	playlists.playlists[playlistID] = models.Playlist{ID: playlistID, OwnerID: owner.ID}

	videoID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/remove/"+videoID+"/"+playlistID, nil)
	req = withURLParams(req, map[string]string{"playlistId": playlistID, "videoId": videoID})
	rec := httptest.NewRecorder()

	handle(handler.RemoveVideo)(rec, authedRequest(req, owner))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPlaylistHandlerUpdateRejectsEmptyName(t *testing.T) {
	playlists := newFakePlaylistStore()
	handler := PlaylistHandler{Playlists: playlists}

	owner := models.User{ID: uuid.NewString()}
	playlistID := uuid.NewString()
	playlists.playlists[playlistID] = models.Playlist{ID: playlistID, OwnerID: owner.ID, Name: "Keep"}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/"+playlistID,
		bytes.NewReader([]byte(`{"name": "   "}`)))
	req = withURLParams(req, map[string]string{"playlistId": playlistID})
	rec := httptest.NewRecorder()

	handle(handler.Update)(rec, authedRequest(req, owner))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if playlists.playlists[playlistID].Name != "Keep" {
		t.Fatal("playlist name must not change on rejected update")
	}
}
