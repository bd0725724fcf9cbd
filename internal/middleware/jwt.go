package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the authenticated account into the request context. Verification is
// two-step: the RS256 signature/expiry check is stateless, then the account's
// current state is loaded through a short-TTL cache so suspended or deleted
// accounts stop passing within the cache window at worst, or immediately when
// a write path dropped the cache entry. Handlers read the result via
// UserID(c), Email(c) and Role(c).
func JWTAuth(signer *utils.Signer, users *repository.UserRepo, ch *cache.Cache, authTTL time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := signer.ParseAccessToken(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx := c.Request().Context()
			key := cache.JWTValidationKey + strconv.FormatUint(claims.UserID, 10)

			var view model.UserView
			if !ch.GetJSON(ctx, key, &view) {
				u, err := users.GetByID(ctx, claims.UserID)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				view = u.View()
				ch.SetJSON(ctx, key, view, authTTL)
			}
			if view.Status != model.StatusActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is not active"})
			}

			c.Set("user_id", view.ID)
			c.Set("email", view.Email)
			c.Set("role", view.Role)
			return next(c)
		}
	}
}
