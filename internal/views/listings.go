package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cliptube/backend/internal/logging"
)

// videoSortColumns whitelists the sortable fields of the video listing.
// Request-supplied sort names never reach the SQL text directly.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// ListVideos pages through published videos with optional free-text and
// owner filters. Unpublished videos appear only for their owner. Pages past
// the end return an empty slice.
func (c *Composer) ListVideos(ctx context.Context, params VideoListParams) ([]VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "views.ListVideos")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
        SELECT v.id, v.video_file_url, v.video_file_id, v.thumbnail_url, v.thumbnail_id,
               v.title, v.description, v.duration, v.views, v.is_published, v.owner_id,
               v.created_at, v.updated_at,
               o.full_name, o.username, o.avatar_url, o.avatar_id
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE (v.is_published OR v.owner_id = `)
	args = append(args, params.ViewerID)
	sb.WriteString("$" + strconv.Itoa(len(args)))
	sb.WriteString(")")

	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := strconv.Itoa(len(args))
		sb.WriteString(" AND (v.title ILIKE $" + n + " OR v.description ILIKE $" + n + ")")
	}
	if params.OwnerID != "" {
		args = append(args, params.OwnerID)
		sb.WriteString(" AND v.owner_id = $" + strconv.Itoa(len(args)))
	}

	sortCol, ok := videoSortColumns[params.SortBy]
	if !ok {
		sortCol = "v.created_at"
		params.SortDesc = true
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}
	sb.WriteString(" ORDER BY " + sortCol + " " + direction)

	skip, limit := offsetLimit(params.Page, params.Limit)
	args = append(args, limit)
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, skip)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := conn.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query video listing: %w", err)
	}
	defer rows.Close()

	videos := []VideoWithOwner{}
	for rows.Next() {
		var v VideoWithOwner
		if err := rows.Scan(&v.ID, &v.VideoFile.URL, &v.VideoFile.StorageID,
			&v.Thumbnail.URL, &v.Thumbnail.StorageID,
			&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.OwnerID,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Owner.FullName, &v.Owner.Username, &v.Owner.Avatar.URL, &v.Owner.Avatar.StorageID); err != nil {
			return nil, fmt.Errorf("scan video listing row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video listing: %w", err)
	}

	return videos, nil
}

// ListComments pages through a video's comments, newest first, each joined
// against its author.
func (c *Composer) ListComments(ctx context.Context, videoID string, page, limit int) ([]CommentWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "views.ListComments")
	defer span.End()

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	skip, limit := offsetLimit(page, limit)

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.content, c.video_id, c.owner_id, c.created_at, c.updated_at,
               o.full_name, o.username, o.avatar_url, o.avatar_id
        FROM comments c
        JOIN users o ON o.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $2 OFFSET $3
    `, videoID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []CommentWithOwner{}
	for rows.Next() {
		var cm CommentWithOwner
		if err := rows.Scan(&cm.ID, &cm.Content, &cm.VideoID, &cm.OwnerID, &cm.CreatedAt, &cm.UpdatedAt,
			&cm.Owner.FullName, &cm.Owner.Username, &cm.Owner.Avatar.URL, &cm.Owner.Avatar.StorageID); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// ChannelVideos returns every video a channel owns, including unpublished
// ones, newest first. Used by the owner dashboard.
func (c *Composer) ChannelVideos(ctx context.Context, ownerID string) ([]VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "views.ChannelVideos")
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
               o.full_name, o.username, o.avatar_url, o.avatar_id
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	videos := []VideoWithOwner{}
	for rows.Next() {
		var v VideoWithOwner
		if err := rows.Scan(&v.ID, &v.VideoFile.URL, &v.VideoFile.StorageID,
			&v.Thumbnail.URL, &v.Thumbnail.StorageID,
			&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.OwnerID,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Owner.FullName, &v.Owner.Username, &v.Owner.Avatar.URL, &v.Owner.Avatar.StorageID); err != nil {
			return nil, fmt.Errorf("scan channel video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel videos: %w", err)
	}

	return videos, nil
}
