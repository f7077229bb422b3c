package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// BearerToken extracts the raw token from an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// JWTAuth rejects requests without a valid access token and stores the
// token's account id for downstream handlers.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return apperr.Unauthorized("missing bearer token")
			}
			id, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return apperr.Unauthorized("invalid token")
			}
			c.Set(accountIDKey, id)
			return next(c)
		}
	}
}

// OptionalJWT authenticates the request when a bearer token is present and
// lets anonymous requests through. A malformed or expired token is still
// rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	strict := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := strict(next)
		return func(c echo.Context) error {
			if _, ok := BearerToken(c); !ok {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
