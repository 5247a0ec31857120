package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/repositories"
)

// Composer runs the read-side join queries against PostgreSQL.
type Composer struct {
	pool db.Pool
}

// NewComposer constructs a view composer over the provided pool.
func NewComposer(pool db.Pool) *Composer {
	return &Composer{pool: pool}
}

// ChannelProfile resolves a channel by exact, case-insensitive username and
// decorates it with subscription aggregates. viewerID may be empty for
// anonymous viewers, in which case isSubscribed is always false.
func (c *Composer) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelProfile")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.email, u.full_name,
               u.avatar_url, u.avatar_id, u.cover_image_url, u.cover_image_id,
               (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
               (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
               EXISTS (
                   SELECT 1 FROM subscriptions s
                   WHERE s.channel_id = u.id AND s.subscriber_id = $2
               ) AS is_subscribed
        FROM users u
        WHERE u.username = lower($1)
    `, username, viewerID)

	var profile ChannelProfile
	if err := row.Scan(&profile.ID, &profile.Username, &profile.Email, &profile.FullName,
		&profile.Avatar.URL, &profile.Avatar.StorageID, &profile.CoverImage.URL, &profile.CoverImage.StorageID,
		&profile.SubscribersCount, &profile.ChannelsSubscribedToCount, &profile.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChannelProfile{}, repositories.ErrNotFound
		}
		return ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory returns the user's watched videos, most recent first, each
// with its owner collapsed to a single restricted object.
func (c *Composer) WatchHistory(ctx context.Context, userID string) ([]HistoryEntry, error) {
	ctx, span := logging.StartSpan(ctx, "views.WatchHistory")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.video_file_url, v.video_file_id, v.thumbnail_url, v.thumbnail_id,
               v.title, v.description, v.duration, v.views, v.is_published, v.owner_id,
               v.created_at, v.updated_at,
               o.full_name, o.username, o.avatar_url, o.avatar_id,
               wh.watched_at
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Video.ID, &e.Video.VideoFile.URL, &e.Video.VideoFile.StorageID,
			&e.Video.Thumbnail.URL, &e.Video.Thumbnail.StorageID,
			&e.Video.Title, &e.Video.Description, &e.Video.Duration, &e.Video.Views,
			&e.Video.IsPublished, &e.Video.OwnerID, &e.Video.CreatedAt, &e.Video.UpdatedAt,
			&e.Owner.FullName, &e.Owner.Username, &e.Owner.Avatar.URL, &e.Owner.Avatar.StorageID,
			&e.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

// ChannelStats aggregates reach for a channel. Every aggregate is guarded so
// that channels with no videos, likes, or subscribers read as zeros instead
// of failing.
func (c *Composer) ChannelStats(ctx context.Context, userID string) (ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelStats")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT count(*) FROM subscriptions WHERE channel_id = $1),
            (SELECT count(*) FROM videos WHERE owner_id = $1),
            COALESCE((SELECT sum(views) FROM videos WHERE owner_id = $1), 0),
            (SELECT count(*) FROM likes WHERE liked_by = $1 AND video_id IS NOT NULL),
            (SELECT count(*) FROM likes WHERE liked_by = $1 AND tweet_id IS NOT NULL),
            (SELECT count(*) FROM likes WHERE liked_by = $1 AND comment_id IS NOT NULL)
    `, userID)

	var stats ChannelStats
	if err := row.Scan(&stats.Subscribers, &stats.TotalVideos, &stats.TotalVideoViews,
		&stats.TotalVideoLikes, &stats.TotalTweetLikes, &stats.TotalCommentLikes); err != nil {
		return ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	return stats, nil
}

// LikedVideos returns the restricted video subset for every like the user
// issued against a video target, newest like first.
func (c *Composer) LikedVideos(ctx context.Context, userID string) ([]LikedVideo, error) {
	ctx, span := logging.StartSpan(ctx, "views.LikedVideos")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.video_file_url, v.video_file_id, v.thumbnail_url, v.thumbnail_id,
               v.views, v.duration, v.title, v.description
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	videos := []LikedVideo{}
	for rows.Next() {
		var v LikedVideo
		if err := rows.Scan(&v.ID, &v.VideoFile.URL, &v.VideoFile.StorageID,
			&v.Thumbnail.URL, &v.Thumbnail.StorageID,
			&v.Views, &v.Duration, &v.Title, &v.Description); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

// ChannelSubscribers lists the users subscribed to a channel.
func (c *Composer) ChannelSubscribers(ctx context.Context, channelID string) ([]ChannelMember, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelSubscribers")
	defer span.End()

	return c.members(ctx, `
        SELECT u.id, u.full_name, u.username, u.email, u.avatar_url, u.avatar_id
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// SubscribedChannels lists the channels a user subscribes to.
func (c *Composer) SubscribedChannels(ctx context.Context, subscriberID string) ([]ChannelMember, error) {
	ctx, span := logging.StartSpan(ctx, "views.SubscribedChannels")
	defer span.End()

	return c.members(ctx, `
        SELECT u.id, u.full_name, u.username, u.email, u.avatar_url, u.avatar_id
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (c *Composer) members(ctx context.Context, query, id string) ([]ChannelMember, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query channel members: %w", err)
	}
	defer rows.Close()

	members := []ChannelMember{}
	for rows.Next() {
		var m ChannelMember
		if err := rows.Scan(&m.ID, &m.FullName, &m.Username, &m.Email, &m.Avatar.URL, &m.Avatar.StorageID); err != nil {
			return nil, fmt.Errorf("scan channel member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel members: %w", err)
	}

	return members, nil
}
