package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
)

// RegisterBooking mounts the transaction endpoints. Any signed-in account
// may book; the service records customers and staff differently and scopes
// listings for customers.
func RegisterBooking(v1 *echo.Group, h *handler.TransactionHandler) {
	auth := authenticated()
	v1.POST("/transactions", h.Create, auth)
	v1.GET("/transactions", h.List, auth)
	v1.GET("/transactions/:id", h.Get, auth)
}
