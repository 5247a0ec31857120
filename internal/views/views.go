// Package views holds the read-side composition layer: each view is a
// single database query producing a fixed, denormalized response shape.
// Views never mutate state and are pure functions of their filter
// parameters.
package views

import (
	"time"

	"github.com/cliptube/backend/internal/models"
)

// Owner is the restricted user subset embedded in joined responses.
type Owner struct {
	FullName string            `json:"fullName"`
	Username string            `json:"username"`
	Avatar   models.MediaAsset `json:"avatar"`
}

// ChannelProfile is a user profile enriched with subscription aggregates.
type ChannelProfile struct {
	ID                        string            `json:"id"`
	Username                  string            `json:"username"`
	Email                     string            `json:"email"`
	FullName                  string            `json:"fullName"`
	Avatar                    models.MediaAsset `json:"avatar"`
	CoverImage                models.MediaAsset `json:"coverImage"`
	SubscribersCount          int64             `json:"subscribersCount"`
	ChannelsSubscribedToCount int64             `json:"channelsSubscribedToCount"`
	IsSubscribed              bool              `json:"isSubscribed"`
}

// HistoryEntry is a watched video with its owner collapsed to a single
// object, ordered most-recent-first.
type HistoryEntry struct {
	Video     models.Video `json:"video"`
	Owner     Owner        `json:"owner"`
	WatchedAt time.Time    `json:"watchedAt"`
}

// ChannelStats aggregates a channel's reach. Empty channels report zeros.
type ChannelStats struct {
	Subscribers       int64 `json:"subscribers"`
	TotalVideos       int64 `json:"totalVideos"`
	TotalVideoViews   int64 `json:"totalVideoViews"`
	TotalVideoLikes   int64 `json:"totalVideoLikes"`
	TotalTweetLikes   int64 `json:"totalTweetLikes"`
	TotalCommentLikes int64 `json:"totalCommentLikes"`
}

// LikedVideo is the restricted video subset returned for liked-video lists.
type LikedVideo struct {
	ID          string            `json:"id"`
	VideoFile   models.MediaAsset `json:"videoFile"`
	Thumbnail   models.MediaAsset `json:"thumbnail"`
	Views       int64             `json:"views"`
	Duration    float64           `json:"duration"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
}

// ChannelMember is the restricted user subset for subscriber and
// subscribed-to listings.
type ChannelMember struct {
	ID       string            `json:"id"`
	FullName string            `json:"fullName"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Avatar   models.MediaAsset `json:"avatar"`
}

// CommentWithOwner is a comment joined against its author.
type CommentWithOwner struct {
	models.Comment
	Owner Owner `json:"ownerInfo"`
}

// VideoWithOwner is a video joined against its author.
type VideoWithOwner struct {
	models.Video
	Owner Owner `json:"ownerInfo"`
}

// VideoListParams filters and pages the public video listing.
type VideoListParams struct {
	Page     int
	Limit    int
	Query    string
	OwnerID  string
	SortBy   string
	SortDesc bool
	// ViewerID relaxes the published-only filter for the viewer's own videos.
	ViewerID string
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// offsetLimit normalizes page/limit into skip = (page-1)*size semantics.
func offsetLimit(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return (page - 1) * limit, limit
}
