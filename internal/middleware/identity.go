package middleware

// identity.go provides typed accessors for the values JWTAuth stores in the
// Echo context, so handlers never repeat the type assertions.

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user's id, or 0 when the request is
// unauthenticated.
func UserID(c echo.Context) uint64 {
	v, _ := c.Get("user_id").(uint64)
	return v
}

// Email returns the authenticated user's email, or "".
func Email(c echo.Context) string {
	v, _ := c.Get("email").(string)
	return v
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	v, _ := c.Get("role").(string)
	return v
}
