package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterPublic mounts the read-only catalog and schedule endpoints. Guests
// may browse them; the showtime and item listings are served through the
// response cache.
func RegisterPublic(v1 *echo.Group, h Handlers, cache echo.MiddlewareFunc) {
	v1.GET("/rooms", h.Rooms.List)
	v1.GET("/rooms/:id", h.Rooms.Get)

	v1.GET("/show-times", h.Showtimes.List, cache)
	v1.GET("/show-times/:id", h.Showtimes.Get)

	v1.GET("/items", h.Catalog.ListItems, cache)
	v1.GET("/items/:id", h.Catalog.GetItem)
	v1.GET("/movies", h.Catalog.ListMovies)
	v1.GET("/movies/:id", h.Catalog.GetMovie)
	v1.GET("/room-types", h.Catalog.ListRoomTypes)
}
