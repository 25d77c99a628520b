package middleware

// identity.go holds helpers shared by the cache and rate-limit
// middleware for identifying the caller when building Redis keys.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a string form of the authenticated user's id,
// or "anon" when the request carries no token.  JWTAuth stores the
// sub claim under "user_id"; after a JSON round trip the value is a
// float64.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "anon"
	case string:
		if v == "" {
			return "anon"
		}
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
