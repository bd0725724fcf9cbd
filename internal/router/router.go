// Package router maps HTTP routes to handlers and applies the auth
// middleware. Browse endpoints (search, nearby, popular, types) are public;
// everything touching a user's own data requires a bearer token; listing
// writes additionally require the admin role.
package router

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryan2kptit/location-based-services-search/internal/cache"
	"github.com/ryan2kptit/location-based-services-search/internal/handler"
	"github.com/ryan2kptit/location-based-services-search/internal/middleware"
	"github.com/ryan2kptit/location-based-services-search/internal/model"
	"github.com/ryan2kptit/location-based-services-search/internal/repository"
	"github.com/ryan2kptit/location-based-services-search/internal/utils"
)

// Deps carries everything the route table needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Services  *handler.ServiceHandler
	Locations *handler.LocationHandler
	Favorites *handler.FavoriteHandler

	Signer   *utils.Signer
	UserRepo *repository.UserRepo
	Cache    *cache.Cache
	AuthTTL  time.Duration
}

// Register wires all routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Session endpoints; no bearer token needed.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/forgot-password", d.Users.ForgotPassword)
	auth.POST("/reset-password", d.Users.ResetPassword)

	// Public browse endpoints.
	e.GET("/v1/services/search", d.Services.Search)
	e.GET("/v1/services/nearby", d.Services.Nearby)
	e.GET("/v1/services/popular", d.Services.Popular)
	e.GET("/v1/services", d.Services.List)
	e.GET("/v1/services/:id", d.Services.Get)
	e.GET("/v1/service-types", d.Services.ListTypes)
	e.GET("/v1/service-types/:id", d.Services.GetType)

	jwtAuth := middleware.JWTAuth(d.Signer, d.UserRepo, d.Cache, d.AuthTTL)

	protected := e.Group("/v1", jwtAuth)
	protected.POST("/auth/logout", d.Auth.Logout)

	protected.GET("/users/me", d.Users.Profile)
	protected.PATCH("/users/me", d.Users.UpdateProfile)
	protected.POST("/users/me/change-password", d.Users.ChangePassword)
	protected.DELETE("/users/me", d.Users.DeleteAccount)

	protected.POST("/locations", d.Locations.Track)
	protected.GET("/locations/current", d.Locations.Current)
	protected.GET("/locations/history", d.Locations.History)
	protected.GET("/locations/nearby-users", d.Locations.NearbyUsers)
	protected.GET("/locations/distance", d.Locations.Distance)
	protected.GET("/locations/:id", d.Locations.Get)
	protected.PATCH("/locations/:id", d.Locations.Update)
	protected.DELETE("/locations/:id", d.Locations.Delete)

	protected.POST("/favorites", d.Favorites.Create)
	protected.GET("/favorites", d.Favorites.List)
	protected.GET("/favorites/type/:typeId", d.Favorites.ListByType)
	protected.GET("/favorites/check/:serviceId", d.Favorites.Check)
	protected.GET("/favorites/:id", d.Favorites.Get)
	protected.DELETE("/favorites/:id", d.Favorites.Delete)

	// Listing management is restricted to admins.
	admin := e.Group("/v1/services", jwtAuth, middleware.RequireRole(model.RoleAdmin))
	admin.POST("", d.Services.Create)
	admin.PUT("/:id", d.Services.Update)
	admin.DELETE("/:id", d.Services.Delete)
}
