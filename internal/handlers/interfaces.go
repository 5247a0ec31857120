package handlers

import (
	"context"
	"io"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/views"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (models.User, error)
	UpdateAccount(ctx context.Context, id string, fullName, email *string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// VideoStore captures persistence for video documents.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, id string, title, description *string, thumbnail *models.MediaAsset) (models.Video, error)
	Delete(ctx context.Context, id string) error
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore toggles likes across the three target types.
type LikeStore interface {
	ToggleVideo(ctx context.Context, videoID, likedBy string) (bool, error)
	ToggleComment(ctx context.Context, commentID, likedBy string) (bool, error)
	ToggleTweet(ctx context.Context, tweetID, likedBy string) (bool, error)
}

// SubscriptionStore toggles subscriber->channel edges.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// PlaylistStore captures persistence for playlists and their entries.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id string, name, description *string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// ViewComposer exposes the read-side denormalized views.
type ViewComposer interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]views.HistoryEntry, error)
	ChannelStats(ctx context.Context, userID string) (views.ChannelStats, error)
	LikedVideos(ctx context.Context, userID string) ([]views.LikedVideo, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]views.ChannelMember, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]views.ChannelMember, error)
	ListVideos(ctx context.Context, params views.VideoListParams) ([]views.VideoWithOwner, error)
	ListComments(ctx context.Context, videoID string, page, limit int) ([]views.CommentWithOwner, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]views.VideoWithOwner, error)
}

// TokenIssuer issues and validates access/refresh token pairs.
type TokenIssuer interface {
	Issue(user models.User) (models.TokenPair, error)
	ValidateAccess(token string) (string, error)
	ValidateRefresh(token string) (string, error)
}

// MediaStorage is the boundary to the external media object store.
type MediaStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (models.MediaAsset, error)
	Delete(ctx context.Context, storageID string) error
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Tweets        TweetStore
	Views         ViewComposer
	Tokens        TokenIssuer
	Media         MediaStorage
	AuthLimiter   RateLimiter
}

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}
