package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterStaff mounts the box office and back office endpoints.
func RegisterStaff(v1 *echo.Group, h Handlers) {
	staff := middleware.RequireRole(model.StaffRoles...)
	management := middleware.RequireRole(model.ManagementRoles...)

	v1.POST("/rooms", h.Rooms.Create, staff)
	v1.PUT("/rooms/:id", h.Rooms.Update, staff)
	v1.DELETE("/rooms/:id", h.Rooms.Delete, staff)

	v1.POST("/show-times", h.Showtimes.Create, staff)
	v1.PUT("/show-times/:id", h.Showtimes.Update, staff)
	v1.DELETE("/show-times/:id", h.Showtimes.Delete, staff)

	v1.POST("/items", h.Catalog.CreateItem, staff)
	v1.PUT("/items/:id", h.Catalog.UpdateItem, staff)
	v1.DELETE("/items/:id", h.Catalog.DeleteItem, staff)
	v1.POST("/movies", h.Catalog.CreateMovie, staff)

	v1.POST("/room-types", h.Catalog.CreateRoomType, management)
	v1.POST("/users", h.Auth.CreateUser, management)
	v1.GET("/users", h.Auth.ListUsers, management)
	v1.PUT("/users/:id", h.Auth.UpdateUser, management)
	v1.DELETE("/users/:id", h.Auth.DeleteUser, management)
	v1.DELETE("/users", h.Auth.DeleteUsers, management)
	v1.GET("/reports/dashboard", h.Reports.Dashboard, management)
}

