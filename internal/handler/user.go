package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/config"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

// UserHandler bundles dependencies for profile and password endpoints.
type UserHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Tokens      *repository.TokenRepo
	ResetTokens *repository.ResetTokenRepo
	Cache       *cache.Cache
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, rt *repository.ResetTokenRepo, ch *cache.Cache) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, ResetTokens: rt, Cache: ch}
}

type updateProfileReq struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// dropAccountCaches removes the cached auth view and any cached token
// validations for the user, so state changes take effect immediately.
func (h *UserHandler) dropAccountCaches(ctx context.Context, userID uint64, tokenIDs []string) {
	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, cache.TokenValidationKey+id)
	}
	keys = append(keys, cache.JWTValidationKey+strconv.FormatUint(userID, 10))
	h.Cache.Delete(ctx, keys...)
}

// Profile returns the caller's account.
func (h *UserHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProfile patches the caller's name, phone or avatar. Omitted fields
// are left untouched.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Phone == nil && req.Avatar == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
	}

	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, userID, req.Name, req.Phone, req.Avatar)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// The cached auth view may now be stale (the name is part of it).
	h.Cache.Delete(ctx, cache.JWTValidationKey+strconv.FormatUint(userID, 10))
	return c.JSON(http.StatusOK, u)
}

// ChangePassword verifies the current password, stores the new hash and
// terminates every active session of the caller.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password/new_password required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	ids, err := h.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	h.dropAccountCaches(ctx, userID, ids)
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// ForgotPassword issues a reset token for the account, if one exists. The
// response is identical whether or not the email is registered, so the
// endpoint cannot be used to probe for accounts. Delivery is a mail concern;
// outside production the token is included in the response for testing.
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uniform := echo.Map{"message": "if the email is registered, a reset token has been issued"}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusOK, uniform)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	t := model.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(time.Duration(h.Cfg.ResetTokenTTLMin) * time.Minute),
	}
	if err := h.ResetTokens.Issue(ctx, t); err != nil {
		log.Printf("forgot-password: issue token failed for user %d: %v", u.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	if h.Cfg.Env != "prod" {
		return c.JSON(http.StatusOK, echo.Map{
			"message":     uniform["message"],
			"reset_token": t.Token,
		})
	}
	return c.JSON(http.StatusOK, uniform)
}

// ResetPassword consumes a reset token and stores the new password hash. The
// token is single-use; a replay or an expired token yields the same error.
// All sessions of the account are terminated.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/new_password required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.ResetTokens.Consume(ctx, req.Token, hash)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	ids, err := h.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	h.dropAccountCaches(ctx, userID, ids)
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset"})
}

// DeleteAccount soft-deletes the caller's account and terminates every
// session. The email stays occupied until the row is purged.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SoftDelete(ctx, userID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	ids, err := h.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	h.dropAccountCaches(ctx, userID, ids)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
