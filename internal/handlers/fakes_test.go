package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/views"
)

// authedRequest attaches an identity the way RequireAuth would.
func authedRequest(r *http.Request, user models.User) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), user))
}

// withURLParams injects chi route parameters for handlers invoked outside a
// router.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type fakeUserStore struct {
	users   map[string]models.User
	watches []string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByRefreshToken(_ context.Context, token string) (models.User, error) {
	for _, user := range s.users {
		if user.RefreshToken != "" && user.RefreshToken == token {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, id string, fullName, email *string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if fullName != nil {
		user.FullName = *fullName
	}
	if email != nil {
		user.Email = strings.ToLower(*email)
	}
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id string, asset models.MediaAsset) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Avatar = asset
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id string, asset models.MediaAsset) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImage = asset
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) RecordWatch(_ context.Context, userID, videoID string) error {
	s.watches = append(s.watches, userID+":"+videoID)
	return nil
}

type fakeVideoStore struct {
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) Update(_ context.Context, id string, title, description *string, thumbnail *models.MediaAsset) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if title != nil {
		video.Title = *title
	}
	if description != nil {
		video.Description = *description
	}
	if thumbnail != nil {
		video.Thumbnail = *thumbnail
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) TogglePublish(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// fakeLikeStore mirrors the repository's toggle semantics with a set of
// "<kind>:<target>:<user>" keys.
type fakeLikeStore struct {
	likes map[string]bool
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]bool)}
}

func (s *fakeLikeStore) toggle(kind, targetID, likedBy string) (bool, error) {
	key := kind + ":" + targetID + ":" + likedBy
	if s.likes[key] {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = true
	return true, nil
}

func (s *fakeLikeStore) ToggleVideo(_ context.Context, videoID, likedBy string) (bool, error) {
	return s.toggle("video", videoID, likedBy)
}

func (s *fakeLikeStore) ToggleComment(_ context.Context, commentID, likedBy string) (bool, error) {
	return s.toggle("comment", commentID, likedBy)
}

func (s *fakeLikeStore) ToggleTweet(_ context.Context, tweetID, likedBy string) (bool, error) {
	return s.toggle("tweet", tweetID, likedBy)
}

type fakeSubscriptionStore struct {
	edges map[string]bool
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{edges: make(map[string]bool)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := subscriberID + ":" + channelID
	if s.edges[key] {
		delete(s.edges, key)
		return false, nil
	}
	s.edges[key] = true
	return true, nil
}

type fakePlaylistStore struct {
	playlists map[string]models.Playlist
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	out := []models.Playlist{}
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, playlist)
		}
	}
	return out, nil
}

func (s *fakePlaylistStore) Update(_ context.Context, id string, name, description *string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if name != nil {
		playlist.Name = *name
	}
	if description != nil {
		playlist.Description = *description
	}
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range playlist.VideoIDs {
		if existing == videoID {
			return repositories.ErrConflict
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, existing := range playlist.VideoIDs {
		if existing == videoID {
			playlist.VideoIDs = append(playlist.VideoIDs[:i], playlist.VideoIDs[i+1:]...)
			s.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeTweetStore struct {
	tweets map[string]models.Tweet
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *fakeTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *fakeTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *fakeTweetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	out := []models.Tweet{}
	for _, tweet := range s.tweets {
		if tweet.OwnerID == ownerID {
			out = append(out, tweet)
		}
	}
	return out, nil
}

func (s *fakeTweetStore) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *fakeTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

// fakeViews returns canned view payloads and records the parameters it saw.
type fakeViews struct {
	profile     views.ChannelProfile
	profileErr  error
	history     []views.HistoryEntry
	stats       views.ChannelStats
	liked       []views.LikedVideo
	members     []views.ChannelMember
	videos      []views.VideoWithOwner
	comments    []views.CommentWithOwner
	listParams  views.VideoListParams
	statsUserID string
	channelID   string
}

func (v *fakeViews) ChannelProfile(_ context.Context, username, viewerID string) (views.ChannelProfile, error) {
	if v.profileErr != nil {
		return views.ChannelProfile{}, v.profileErr
	}
	return v.profile, nil
}

func (v *fakeViews) WatchHistory(_ context.Context, userID string) ([]views.HistoryEntry, error) {
	return v.history, nil
}

func (v *fakeViews) ChannelStats(_ context.Context, userID string) (views.ChannelStats, error) {
	v.statsUserID = userID
	return v.stats, nil
}

func (v *fakeViews) LikedVideos(_ context.Context, userID string) ([]views.LikedVideo, error) {
	return v.liked, nil
}

func (v *fakeViews) ChannelSubscribers(_ context.Context, channelID string) ([]views.ChannelMember, error) {
	return v.members, nil
}

func (v *fakeViews) SubscribedChannels(_ context.Context, subscriberID string) ([]views.ChannelMember, error) {
	return v.members, nil
}

func (v *fakeViews) ListVideos(_ context.Context, params views.VideoListParams) ([]views.VideoWithOwner, error) {
	v.listParams = params
	return v.videos, nil
}

func (v *fakeViews) ListComments(_ context.Context, videoID string, page, limit int) ([]views.CommentWithOwner, error) {
	return v.comments, nil
}

func (v *fakeViews) ChannelVideos(_ context.Context, ownerID string) ([]views.VideoWithOwner, error) {
	v.channelID = ownerID
	return v.videos, nil
}

// fakeMedia records uploads and deletions without touching real storage.
type fakeMedia struct {
	saved   []string
	deleted []string
	saveErr error
}

func (m *fakeMedia) Save(_ context.Context, name string, r io.Reader) (models.MediaAsset, error) {
	if m.saveErr != nil {
		return models.MediaAsset{}, m.saveErr
	}
	_, _ = io.Copy(io.Discard, r)
	m.saved = append(m.saved, name)
	return models.MediaAsset{URL: "https://media.test/" + name, StorageID: name}, nil
}

func (m *fakeMedia) Delete(_ context.Context, storageID string) error {
	m.deleted = append(m.deleted, storageID)
	return nil
}

// staticTokens issues deterministic token pairs keyed by user ID.
type staticTokens struct {
	issued int
}

func (t *staticTokens) Issue(user models.User) (models.TokenPair, error) {
	t.issued++
	now := time.Now().UTC()
	suffix := user.ID + "-" + time.Now().Format("150405.000000000")
	return models.TokenPair{
		AccessToken:      "access-" + suffix,
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     "refresh-" + suffix,
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}, nil
}

func (t *staticTokens) ValidateAccess(token string) (string, error) {
	if id, ok := strings.CutPrefix(token, "access-"); ok {
		return id[:strings.LastIndex(id, "-")], nil
	}
	return "", auth.ErrInvalidToken
}

func (t *staticTokens) ValidateRefresh(token string) (string, error) {
	if id, ok := strings.CutPrefix(token, "refresh-"); ok {
		return id[:strings.LastIndex(id, "-")], nil
	}
	return "", auth.ErrInvalidToken
}
