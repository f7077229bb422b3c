package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

type TransactionHandler struct {
	Bookings *service.BookingService
	Timeout  time.Duration
}

func NewTransactionHandler(bookings *service.BookingService, timeout time.Duration) *TransactionHandler {
	return &TransactionHandler{Bookings: bookings, Timeout: timeout}
}

type itemLineReq struct {
	ID       uint64 `json:"id" validate:"required,gt=0"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type createTransactionReq struct {
	Tickets []uint64      `json:"tickets" validate:"required,min=1,unique,dive,gt=0"`
	Items   []itemLineReq `json:"items" validate:"omitempty,dive"`
}

// Create handles POST /v1/transactions. Customers buy for themselves; staff
// sales are recorded against the staff account.
func (h *TransactionHandler) Create(c echo.Context) error {
	var req createTransactionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	items := make([]service.BookingItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.BookingItem{ItemID: it.ID, Quantity: it.Quantity})
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	tr, err := h.Bookings.Create(ctx, callerOf(c), service.BookingRequest{TicketIDs: req.Tickets, Items: items})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tr)
}

// List handles GET /v1/transactions. Customers see only their own.
func (h *TransactionHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	list, err := h.Bookings.List(ctx, callerOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

func (h *TransactionHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	tr, err := h.Bookings.Get(ctx, callerOf(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tr)
}
