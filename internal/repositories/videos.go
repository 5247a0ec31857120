package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

const videoColumns = `id, video_file_url, video_file_id, thumbnail_url, thumbnail_id,
        title, description, duration, views, is_published, owner_id, created_at, updated_at`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, video_file_url, video_file_id, thumbnail_url, thumbnail_id,
                title, description, duration, views, is_published, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.VideoFile.URL, video.VideoFile.StorageID, video.Thumbnail.URL, video.Thumbnail.StorageID,
		video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.OwnerID,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Update applies a partial merge of title, description, and thumbnail,
// returning the post-update record.
func (r *PostgresVideoRepository) Update(ctx context.Context, id string, title, description *string, thumbnail *models.MediaAsset) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var thumbURL, thumbID *string
	if thumbnail != nil {
		thumbURL, thumbID = &thumbnail.URL, &thumbnail.StorageID
	}

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = COALESCE($2, title),
            description = COALESCE($3, description),
            thumbnail_url = COALESCE($4, thumbnail_url),
            thumbnail_id = COALESCE($5, thumbnail_id),
            updated_at = $6
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description, thumbURL, thumbID, time.Now().UTC())

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// Delete removes a video. Dependent comments, likes, playlist entries,
// and watch history rows go with it via the schema's cascades.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublish flips the publish flag and returns the post-update record.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = $2
        WHERE id = $1
        RETURNING `+videoColumns, id, time.Now().UTC())

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("toggle video publish: %w", err)
	}
	return video, nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.VideoFile.URL, &video.VideoFile.StorageID,
		&video.Thumbnail.URL, &video.Thumbnail.StorageID,
		&video.Title, &video.Description, &video.Duration, &video.Views, &video.IsPublished,
		&video.OwnerID, &video.CreatedAt, &video.UpdatedAt)
	return video, err
}
