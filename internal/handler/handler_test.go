package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/apperr"
)

func TestErrorBody(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   any
	}{
		{"not found", apperr.NotFound("showtime not found"), http.StatusNotAcceptable, apperr.KindNotFound},
		{"conflict", fmt.Errorf("wrapped: %w", apperr.Conflict("seat A1 has already been booked")), http.StatusUnprocessableEntity, apperr.KindConflict},
		{"bind", echo.NewHTTPError(http.StatusBadRequest, "invalid body"), http.StatusBadRequest, "bad_request"},
		{"route", echo.ErrNotFound, http.StatusNotFound, "not_found"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, apperr.KindUnavailable},
		{"wrapped timeout", apperr.Internal("failed to list rooms", fmt.Errorf("select: %w", context.DeadlineExceeded)), http.StatusServiceUnavailable, apperr.KindUnavailable},
		{"translated timeout", apperr.Unavailable("request timed out", context.DeadlineExceeded), http.StatusServiceUnavailable, apperr.KindUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, apperr.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorBody(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotContains(t, body["error"], "boom")
		})
	}
}

func TestValidatorUsesJSONFieldNames(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&createTransactionReq{
		Tickets: []uint64{1, 1},
		Items:   []itemLineReq{{ID: 3, Quantity: 0}},
	})

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	fields := map[string]string{}
	for _, f := range ae.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "must not contain duplicates", fields["tickets"])
	assert.Contains(t, fields, "items[0].quantity")

	assert.NoError(t, v.Validate(&createTransactionReq{Tickets: []uint64{1, 2}}))
}

func TestSeatClassesAreCaseInsensitive(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&createRoomReq{
		Name:     "Hall 1",
		RoomType: 1,
		Seats:    [][]string{{"single", "Double"}, {" none ", "SINGLE"}},
	}))

	err := v.Validate(&createRoomReq{Name: "Hall 1", RoomType: 1, Seats: [][]string{{"single", "vip"}}})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "seats[0][1]", ae.Fields[0].Field)
	assert.Equal(t, "must be one of SINGLE DOUBLE NONE", ae.Fields[0].Message)
}
