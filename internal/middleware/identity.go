package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Context keys written by JWTAuth and ResolveRole.
const (
	accountIDKey = "account_id"
	roleKey      = "role"
)

// AccountID returns the authenticated account, or 0 for anonymous requests.
func AccountID(c echo.Context) uint64 {
	id, _ := c.Get(accountIDKey).(uint64)
	return id
}

// Role returns the role resolved for the current request, or "" when the
// request is anonymous.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(roleKey).(model.Role)
	return r
}

// subject names the caller for rate-limit keys.
func subject(c echo.Context) string {
	if id := AccountID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
