package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/session"
)

// CheckAuth lets authenticated requests through and redirects everyone else
// to redirectTo. It must run after the session middleware.
func CheckAuth(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !session.IsAuthenticated(c) {
				return c.Redirect(http.StatusFound, redirectTo)
			}
			return next(c)
		}
	}
}
