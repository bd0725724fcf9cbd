// Package handler contains the HTTP endpoints. Handlers bind request DTOs,
// call repositories with a bounded context and translate sentinel errors to
// JSON error responses.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/config"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	CacheCfg config.CacheConfig
	Signer   *utils.Signer
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Cache    *cache.Cache
}

func NewAuthHandler(cfg config.Config, ccfg config.CacheConfig, s *utils.Signer, u *repository.UserRepo, t *repository.TokenRepo, ch *cache.Cache) *AuthHandler {
	return &AuthHandler{Cfg: cfg, CacheCfg: ccfg, Signer: s, Users: u, Tokens: t, Cache: ch}
}

// ----- DTOs -----

type registerReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
	RefreshToken string `json:"refresh_token"` // optional: empty means all sessions
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.UserView `json:"user"`
	Access  tokenPart      `json:"access"`
	Refresh tokenPart      `json:"refresh"`
}

// clientMeta captures the optional device fingerprint stored with a refresh
// token record.
func clientMeta(c echo.Context) (deviceInfo, ipAddress *string) {
	if ua := c.Request().UserAgent(); ua != "" {
		deviceInfo = &ua
	}
	if ip := c.RealIP(); ip != "" {
		ipAddress = &ip
	}
	return deviceInfo, ipAddress
}

// mintPair signs a fresh access/refresh pair and builds the refresh record to
// persist alongside it.
func (h *AuthHandler) mintPair(c echo.Context, userID uint64, email, role string) (utils.AccessToken, utils.RefreshToken, model.RefreshToken, error) {
	access, err := h.Signer.NewAccessToken(userID, email, role)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, model.RefreshToken{}, err
	}
	refresh, err := h.Signer.NewRefreshToken(userID)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, model.RefreshToken{}, err
	}
	device, ip := clientMeta(c)
	rec := model.RefreshToken{
		ID:         refresh.TokenID,
		UserID:     userID,
		Token:      refresh.Token,
		DeviceInfo: device,
		IPAddress:  ip,
		ExpiresAt:  refresh.Exp,
	}
	return access, refresh, rec, nil
}

// Register creates the account and logs it in atomically: the user row and
// its first refresh token land in the same transaction.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		access  utils.AccessToken
		refresh utils.RefreshToken
	)
	uid, err := h.Users.CreateWithToken(ctx, req.Name, req.Email, hash, req.Phone,
		func(userID uint64) (model.RefreshToken, error) {
			a, r, rec, err := h.mintPair(c, userID, req.Email, model.RoleUser)
			if err != nil {
				return model.RefreshToken{}, err
			}
			access, refresh = a, r
			return rec, nil
		})
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, authResp{
		User:    model.UserView{ID: uid, Name: req.Name, Email: req.Email, Role: model.RoleUser, Status: model.StatusActive},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	})
}

// Login verifies credentials and returns a fresh token pair. Unknown email
// and wrong password produce the same response so the two cannot be told
// apart.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is not active"})
	}

	access, refresh, rec, err := h.mintPair(c, u.ID, u.Email, u.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Tokens.StoreMarkingLogin(ctx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    u.View(),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	})
}

// Refresh rotates a refresh token: the presented token is validated against
// its stored record, revoked, and replaced by a new pair in one transaction.
// A replayed token hits the revoked record and fails, so every refresh token
// is single-use. The record check always goes to the database on purpose;
// the refresh-token-validation cache only carries the owner's account
// projection, so a revocation can never be masked by a cached result.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := h.Signer.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.Validate(ctx, claims.TokenID, req.RefreshToken); err != nil {
		if err == repository.ErrNotFound || err == repository.ErrTokenMismatch {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	// The token's owner is looked up through a short-TTL cache keyed by the
	// record id; rotation below moves the entry to the new id.
	var view model.UserView
	if !h.Cache.GetJSON(ctx, cache.TokenValidationKey+claims.TokenID, &view) {
		u, err := h.Users.GetByID(ctx, claims.UserID)
		if err != nil {
			if err == repository.ErrNotFound {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		view = u.View()
	}
	if view.Status != model.StatusActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is not active"})
	}

	access, refresh, rec, err := h.mintPair(c, view.ID, view.Email, view.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Tokens.Rotate(ctx, claims.TokenID, rec); err != nil {
		if err == repository.ErrNotFound {
			// Lost the race against a concurrent refresh of the same token.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate token failed"})
	}
	h.Cache.Delete(ctx, cache.TokenValidationKey+claims.TokenID)
	h.Cache.SetJSON(ctx, cache.TokenValidationKey+rec.ID, view, h.CacheCfg.AuthTTL)

	return c.JSON(http.StatusOK, authResp{
		User:    view,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	})
}

// Logout revokes the presented refresh token, or every active session of the
// caller when no token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req) // body is optional

	userID := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.RefreshToken != "" {
		claims, err := h.Signer.ParseRefreshToken(req.RefreshToken)
		if err != nil || claims.UserID != userID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.Revoke(ctx, claims.TokenID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
		h.Cache.Delete(ctx, cache.TokenValidationKey+claims.TokenID)
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
	}

	ids, err := h.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, cache.TokenValidationKey+id)
	}
	keys = append(keys, cache.JWTValidationKey+strconv.FormatUint(userID, 10))
	h.Cache.Delete(ctx, keys...)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
