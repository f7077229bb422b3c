// Package handler exposes the services over HTTP. Handlers bind and
// validate request bodies, call one service method and render the result;
// failures are returned as errors and rendered by ErrorHandler.
package handler

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// defaultTimeout bounds the service call of a request when none is configured.
const defaultTimeout = 5 * time.Second

// Validator adapts go-playground/validator to echo.Validator. Field names in
// errors follow the JSON tags.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// seatclass accepts what seatgrid.ParseClass accepts, in any case.
	_ = v.RegisterValidation("seatclass", func(fl validator.FieldLevel) bool {
		_, err := seatgrid.ParseClass(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return apperr.Validation("invalid request", fields...)
}

// fieldPath drops the struct name from the validator namespace, giving
// e.g. "seats[1][0]" or "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "seatclass":
		return "must be one of SINGLE DOUBLE NONE"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " element(s)"
	case "max":
		return "must be at most " + fe.Param() + " long"
	case "unique":
		return "must not contain duplicates"
	case "email":
		return "must be a valid email"
	}
	return "failed " + fe.Tag() + " check"
}

// ErrorHandler renders every error returned by handlers and middleware.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).WithError(err).Error("request error")
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).WithError(err).Warn("write error response")
	}
}

func errorBody(err error) (int, echo.Map) {
	if errors.Is(err, context.DeadlineExceeded) && apperr.KindOf(err) == apperr.KindInternal {
		err = apperr.Unavailable("request timed out", err)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body := echo.Map{"error": ae.Message, "kind": ae.Kind}
		if len(ae.Fields) > 0 {
			body["fields"] = ae.Fields
		}
		return apperr.HTTPStatus(ae.Kind), body
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, echo.Map{"error": msg, "kind": kindForStatus(he.Code)}
	}
	return http.StatusInternalServerError, echo.Map{"error": "internal server error", "kind": apperr.KindInternal}
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return string(apperr.KindUnauthorized)
	case http.StatusForbidden:
		return string(apperr.KindForbidden)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return "not_found"
	}
	if code >= http.StatusInternalServerError {
		return string(apperr.KindInternal)
	}
	return "error"
}

// bind decodes the body into dst and validates it. Malformed JSON answers
// 400; tag failures answer 422 with one entry per field.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(dst)
}

func idParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func queryID(c echo.Context, name string) (uint64, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func callerOf(c echo.Context) service.Caller {
	return service.Caller{AccountID: middleware.AccountID(c), Role: middleware.Role(c)}
}

// requestContext bounds the service call so a slow store cannot hold a
// connection forever. A timed out booking rolls back as a whole.
func requestContext(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}
