package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// imageUploadLimit bounds avatar and cover image uploads.
const imageUploadLimit = 10 << 20

// UserHandler implements registration, session, profile, and history endpoints.
type UserHandler struct {
	Users   UserStore
	Views   ViewComposer
	Tokens  TokenIssuer
	Media   MediaStorage
	NowFunc func() time.Time
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		return badRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest("Invalid email address")
	}
	if len(req.Password) < 8 {
		return badRequest("Password must be at least 8 characters")
	}
	if req.Avatar.URL == "" {
		return badRequest("Avatar is required")
	}

	if _, err := h.Users.FindByUsernameOrEmail(r.Context(), req.Username, req.Email); err == nil {
		return conflict("User with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   hashed,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return conflict("User with email or username already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}

	respond(r.Context(), w, http.StatusCreated, user, "User registered successfully")
	return nil
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" && req.Email == "" {
		return badRequest("Email or username is required")
	}
	if req.Password == "" {
		return badRequest("Password is required")
	}

	user, err := h.Users.FindByUsernameOrEmail(r.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return unauthorized("Invalid credentials")
		}
		return fmt.Errorf("find user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return unauthorized("Invalid credentials")
	}

	pair, err := h.issueSession(r, user)
	if err != nil {
		return err
	}

	setAuthCookies(w, pair)
	respond(r.Context(), w, http.StatusOK, loginResponse{User: user, TokenPair: pair}, "User logged in successfully")
	return nil
}

// Logout handles POST /api/v1/users/logout: it revokes the stored refresh
// token and clears the session cookies.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	if err := h.Users.SetRefreshToken(r.Context(), user.ID, ""); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	clearAuthCookies(w)
	respond(r.Context(), w, http.StatusOK, struct{}{}, "Logged out successfully")
	return nil
}

// Refresh handles POST /api/v1/users/refresh-token: it exchanges a valid
// refresh token, matched against the stored value, for a fresh pair.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) error {
	token := refreshTokenFrom(r)
	if token == "" {
		return unauthorized("Refresh token is required")
	}

	if _, err := h.Tokens.ValidateRefresh(token); err != nil {
		return err
	}

	user, err := h.Users.FindByRefreshToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return unauthorized("Invalid refresh token")
		}
		return fmt.Errorf("find user by refresh token: %w", err)
	}

	pair, err := h.issueSession(r, user)
	if err != nil {
		return err
	}

	setAuthCookies(w, pair)
	respond(r.Context(), w, http.StatusOK, pair, "Access token refreshed")
	return nil
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.NewPassword == "" || len(req.NewPassword) < 8 {
		return badRequest("New password must be at least 8 characters")
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return badRequest("Wrong password")
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := h.Users.UpdatePassword(r.Context(), user.ID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, struct{}{}, "Password changed successfully")
	return nil
}

// Current handles GET /api/v1/users/current-user.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}
	respond(r.Context(), w, http.StatusOK, user, "User fetched")
	return nil
}

// UpdateAccount handles PATCH /api/v1/users/update-account with a partial
// merge of fullName and email.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.FullName == nil && req.Email == nil {
		return badRequest("At least one field must be updated")
	}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return badRequest("Invalid email address")
		}
	}

	updated, err := h.Users.UpdateAccount(r.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return conflict("Email already in use")
		}
		return fmt.Errorf("update account: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, updated, "Account details updated")
	return nil
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart).
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.updateImage(w, r, "avatar", h.Users.UpdateAvatar, func(u models.User) models.MediaAsset { return u.Avatar })
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart).
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.updateImage(w, r, "coverImage", h.Users.UpdateCoverImage, func(u models.User) models.MediaAsset { return u.CoverImage })
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, id string, asset models.MediaAsset) (models.User, error),
	current func(models.User) models.MediaAsset) error {

	user, err := identity(r)
	if err != nil {
		return err
	}

	if err := r.ParseMultipartForm(imageUploadLimit); err != nil {
		return badRequest("Invalid multipart payload")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return badRequest(field + " file is missing")
	}
	defer file.Close()

	key := fmt.Sprintf("images/%s/%s-%s", user.ID, uuid.NewString(), header.Filename)
	asset, err := h.Media.Save(r.Context(), key, file)
	if err != nil {
		return fmt.Errorf("upload %s: %w", field, err)
	}

	previous := current(user)
	updated, err := update(r.Context(), user.ID, asset)
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}

	if previous.StorageID != "" {
		if err := h.Media.Delete(r.Context(), previous.StorageID); err != nil {
			logging.FromContext(r.Context()).Warn("delete replaced asset", "storageId", previous.StorageID, "error", err)
		}
	}

	respond(r.Context(), w, http.StatusOK, updated, field+" updated successfully")
	return nil
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		return badRequest("Username is required")
	}

	var viewerID string
	if viewer, ok := auth.IdentityFromContext(r.Context()); ok {
		viewerID = viewer.ID
	}

	profile, err := h.Views.ChannelProfile(r.Context(), username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Channel not found")
		}
		return fmt.Errorf("channel profile: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, profile, "Channel fetched successfully")
	return nil
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	user, err := identity(r)
	if err != nil {
		return err
	}

	history, err := h.Views.WatchHistory(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("watch history: %w", err)
	}

	respond(r.Context(), w, http.StatusOK, history, "Watch history fetched successfully")
	return nil
}

func (h UserHandler) issueSession(r *http.Request, user models.User) (models.TokenPair, error) {
	pair, err := h.Tokens.Issue(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	if err := h.Users.SetRefreshToken(r.Context(), user.ID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func refreshTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

type registerRequest struct {
	FullName   string            `json:"fullName"`
	Email      string            `json:"email"`
	Username   string            `json:"username"`
	Password   string            `json:"password"`
	Avatar     models.MediaAsset `json:"avatar"`
	CoverImage models.MediaAsset `json:"coverImage"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

type loginResponse struct {
	User models.User `json:"user"`
	models.TokenPair
}
