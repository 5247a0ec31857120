package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
)

// likeTarget names the column a like points at. The fixed set keeps the
// column name out of caller hands so it can be spliced into SQL safely.
type likeTarget string

const (
	likeTargetVideo   likeTarget = "video_id"
	likeTargetComment likeTarget = "comment_id"
	likeTargetTweet   likeTarget = "tweet_id"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// ToggleVideo toggles the actor's like on a video. Returns true when the
// toggle resulted in a like, false when it removed one.
func (r *PostgresLikeRepository) ToggleVideo(ctx context.Context, videoID, likedBy string) (bool, error) {
	return r.toggle(ctx, likeTargetVideo, videoID, likedBy)
}

// ToggleComment toggles the actor's like on a comment.
func (r *PostgresLikeRepository) ToggleComment(ctx context.Context, commentID, likedBy string) (bool, error) {
	return r.toggle(ctx, likeTargetComment, commentID, likedBy)
}

// ToggleTweet toggles the actor's like on a tweet.
func (r *PostgresLikeRepository) ToggleTweet(ctx context.Context, tweetID, likedBy string) (bool, error) {
	return r.toggle(ctx, likeTargetTweet, tweetID, likedBy)
}

// toggle is an atomic upsert-or-delete: the insert relies on the partial
// unique index per target, so two concurrent toggles from the same actor
// cannot race into duplicate rows.
func (r *PostgresLikeRepository) toggle(ctx context.Context, target likeTarget, targetID, likedBy string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	col := string(target)
	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, `+col+`, liked_by, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (liked_by, `+col+`) WHERE `+col+` IS NOT NULL DO NOTHING
    `, uuid.NewString(), targetID, likedBy, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE `+col+` = $1 AND liked_by = $2
    `, targetID, likedBy); err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return false, nil
}
