package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash,
        avatar_url, avatar_id, cover_image_url, cover_image_id,
        COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. Username and email are stored lowercase.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash,
                avatar_url, avatar_id, cover_image_url, cover_image_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, strings.ToLower(user.Username), strings.ToLower(user.Email), user.FullName, user.Password,
		user.Avatar.URL, user.Avatar.StorageID, user.CoverImage.URL, user.CoverImage.StorageID,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUsername fetches a user by normalized username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `WHERE username = lower($1)`, username)
}

// FindByUsernameOrEmail fetches the first user matching either value.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	return r.findOne(ctx, `WHERE username = lower($1) OR email = lower($2)`, username, email)
}

// FindByRefreshToken fetches the user currently holding the provided refresh token.
func (r *PostgresUserRepository) FindByRefreshToken(ctx context.Context, token string) (models.User, error) {
	return r.findOne(ctx, `WHERE refresh_token = $1`, token)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// UpdateAccount applies a partial merge of fullName and email, returning the
// post-update record. Nil fields keep their stored values.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id string, fullName, email *string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = COALESCE($2, full_name),
            email = COALESCE(lower($3), email),
            updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email, time.Now().UTC())

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user account: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar swaps the avatar asset and returns the post-update record.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.User, error) {
	return r.updateAsset(ctx, id, "avatar_url", "avatar_id", asset)
}

// UpdateCoverImage swaps the cover image asset and returns the post-update record.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.User, error) {
	return r.updateAsset(ctx, id, "cover_image_url", "cover_image_id", asset)
}

func (r *PostgresUserRepository) updateAsset(ctx context.Context, id, urlCol, idCol string, asset models.MediaAsset) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE users SET `+urlCol+` = $2, `+idCol+` = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, asset.URL, asset.StorageID, time.Now().UTC())

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update user media: %w", err)
	}
	return user, nil
}

// SetRefreshToken rotates the stored refresh token. An empty token clears it.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var value *string
	if token != "" {
		value = &token
	}

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2 WHERE id = $1
    `, id, value)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordWatch prepends a video to the user's watch history. Re-watching an
// already listed video moves it back to the front.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("record watch history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar.URL, &user.Avatar.StorageID, &user.CoverImage.URL, &user.CoverImage.StorageID,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
