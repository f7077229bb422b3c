package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/service"
)

type ShowtimeHandler struct {
	Showtimes *service.ShowtimeService
	Clock     clock.Clock
	Timeout   time.Duration
}

func NewShowtimeHandler(showtimes *service.ShowtimeService, clk clock.Clock, timeout time.Duration) *ShowtimeHandler {
	return &ShowtimeHandler{Showtimes: showtimes, Clock: clk, Timeout: timeout}
}

// showtimeReq is shared by create and update. StartTime is ISO 8601; a value
// without an offset is read as theater-local time.
type showtimeReq struct {
	MovieID     uint64 `json:"movieId" validate:"required,gt=0"`
	RoomID      uint64 `json:"roomId" validate:"required,gt=0"`
	StartTime   string `json:"startTime" validate:"required"`
	SinglePrice int64  `json:"singlePrice" validate:"gte=0"`
	DoublePrice int64  `json:"doublePrice" validate:"gte=0"`
}

func (h *ShowtimeHandler) input(c echo.Context) (service.ShowtimeInput, error) {
	var req showtimeReq
	if err := bind(c, &req); err != nil {
		return service.ShowtimeInput{}, err
	}
	start, err := clock.ParseTime(h.Clock, req.StartTime)
	if err != nil {
		return service.ShowtimeInput{}, apperr.Validation("invalid showtime",
			apperr.FieldError{Field: "startTime", Message: "must be an ISO 8601 date-time"})
	}
	return service.ShowtimeInput{
		MovieID:     req.MovieID,
		RoomID:      req.RoomID,
		StartTime:   start,
		SinglePrice: req.SinglePrice,
		DoublePrice: req.DoublePrice,
	}, nil
}

// Create handles POST /v1/show-times and answers with the seat map.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	in, err := h.input(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	st, err := h.Showtimes.Create(ctx, callerOf(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

// Update handles PUT /v1/show-times/:id.
func (h *ShowtimeHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	in, err := h.input(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	st, err := h.Showtimes.Update(ctx, callerOf(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Delete handles DELETE /v1/show-times/:id.
func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Showtimes.Delete(ctx, callerOf(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "showtime deleted"})
}

// Get handles GET /v1/show-times/:id.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	st, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// List handles GET /v1/show-times?date=YYYY-MM-DD&roomId=&movieId=. Without
// a date it lists upcoming showtimes.
func (h *ShowtimeHandler) List(c echo.Context) error {
	var q service.ShowtimeQuery
	if s := c.QueryParam("date"); s != "" {
		day, err := clock.ParseDate(h.Clock, s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.Day = day
	}
	var err error
	if q.RoomID, err = queryID(c, "roomId"); err != nil {
		return err
	}
	if q.MovieID, err = queryID(c, "movieId"); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	list, err := h.Showtimes.List(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
