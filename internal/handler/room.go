package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

type RoomHandler struct {
	Rooms   *service.RoomService
	Timeout time.Duration
}

func NewRoomHandler(rooms *service.RoomService, timeout time.Duration) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Timeout: timeout}
}

type createRoomReq struct {
	Name     string     `json:"name" validate:"required,max=100"`
	RoomType uint64     `json:"roomType" validate:"required,gt=0"`
	Seats    [][]string `json:"seats" validate:"required,min=1,dive,min=1,dive,seatclass"`
}

// updateRoomReq only reshapes the grid when IsSeatModified is set.
type updateRoomReq struct {
	Name           string     `json:"name" validate:"required,max=100"`
	RoomType       uint64     `json:"roomType" validate:"required,gt=0"`
	Seats          [][]string `json:"seats" validate:"omitempty,dive,min=1,dive,seatclass"`
	IsSeatModified bool       `json:"isSeatModified"`
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	room, err := h.Rooms.Create(ctx, callerOf(c), service.RoomInput{
		Name:       req.Name,
		RoomTypeID: req.RoomType,
		Seats:      req.Seats,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, room)
}

// Update handles PUT /v1/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req updateRoomReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	room, err := h.Rooms.Update(ctx, callerOf(c), id, service.RoomUpdate{
		Name:          req.Name,
		RoomTypeID:    req.RoomType,
		Seats:         req.Seats,
		SeatsModified: req.IsSeatModified,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /v1/rooms/:id.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	if err := h.Rooms.Delete(ctx, callerOf(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room deleted"})
}

func (h *RoomHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	room, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

// List handles GET /v1/rooms?roomTypeId=.
func (h *RoomHandler) List(c echo.Context) error {
	roomTypeID, err := queryID(c, "roomTypeId")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	rooms, err := h.Rooms.List(ctx, service.RoomQuery{RoomTypeID: roomTypeID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}
