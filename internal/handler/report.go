package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

type ReportHandler struct {
	Reports *service.ReportService
	Timeout time.Duration
}

func NewReportHandler(reports *service.ReportService, timeout time.Duration) *ReportHandler {
	return &ReportHandler{Reports: reports, Timeout: timeout}
}

// Dashboard handles GET /v1/reports/dashboard.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()

	d, err := h.Reports.Dashboard(ctx, callerOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
