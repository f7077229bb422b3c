package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

// CatalogHandler serves items, movies and room types.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Timeout time.Duration
}

func NewCatalogHandler(catalog *service.CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Timeout: timeout}
}

type itemReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
	Price    int64  `json:"price" validate:"gte=0"`
}

func (r itemReq) input() service.ItemInput {
	return service.ItemInput{Name: r.Name, ImageURL: r.ImageURL, Price: r.Price}
}

type movieReq struct {
	Title    string `json:"title" validate:"required,max=200"`
	Duration int    `json:"duration" validate:"required,gt=0"`
}

type roomTypeReq struct {
	Name string `json:"name" validate:"required,max=50"`
}

func (h *CatalogHandler) CreateItem(c echo.Context) error {
	var req itemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	it, err := h.Catalog.CreateItem(ctx, callerOf(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *CatalogHandler) UpdateItem(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req itemReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	it, err := h.Catalog.UpdateItem(ctx, callerOf(c), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

// DeleteItem removes an item from the catalog. Past transaction lines keep
// their snapshotted price.
func (h *CatalogHandler) DeleteItem(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Catalog.DeleteItem(ctx, callerOf(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "item deleted"})
}

func (h *CatalogHandler) GetItem(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	it, err := h.Catalog.GetItem(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, it)
}

func (h *CatalogHandler) ListItems(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	items, err := h.Catalog.ListItems(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	m, err := h.Catalog.CreateMovie(ctx, callerOf(c), service.MovieInput{Title: req.Title, Duration: req.Duration})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	m, err := h.Catalog.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *CatalogHandler) ListMovies(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	movies, err := h.Catalog.ListMovies(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

func (h *CatalogHandler) CreateRoomType(c echo.Context) error {
	var req roomTypeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	rt, err := h.Catalog.CreateRoomType(ctx, callerOf(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rt)
}

func (h *CatalogHandler) ListRoomTypes(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	types, err := h.Catalog.ListRoomTypes(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": types})
}
