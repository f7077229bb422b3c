package middleware

import (
	"context"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RoleResolver looks up an account's current role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, accountID uint64) (model.Role, error)
}

// ResolveRole loads the role of the authenticated account on every request so
// that role changes and deactivation apply without re-issuing tokens.
// Anonymous requests pass through untouched.
func ResolveRole(resolver RoleResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := AccountID(c)
			if id == 0 {
				return next(c)
			}
			role, err := resolver.ResolveRole(c.Request().Context(), id)
			if err != nil {
				return err
			}
			c.Set(roleKey, role)
			return next(c)
		}
	}
}

// RequireRole aborts with 403 unless the resolved role is one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AccountID(c) == 0 {
				return apperr.Unauthorized("authentication required")
			}
			if !slices.Contains(roles, Role(c)) {
				return apperr.Forbidden("forbidden")
			}
			return next(c)
		}
	}
}
