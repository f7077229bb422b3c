// Package service implements the cinema's use cases on top of a
// repository.Store. Every operation that changes state runs in a single unit
// of work so it either applies completely or not at all.
package service

import (
	"context"
	"errors"
	"slices"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Caller identifies who is performing an operation.
type Caller struct {
	AccountID uint64
	Role      model.Role
}

func (c Caller) hasRole(roles ...model.Role) bool {
	return slices.Contains(roles, c.Role)
}

func (c Caller) require(roles ...model.Role) error {
	if c.AccountID == 0 {
		return apperr.Unauthorized("authentication required")
	}
	if !c.hasRole(roles...) {
		return apperr.Forbidden("forbidden")
	}
	return nil
}

// translate turns repository sentinels into client-facing errors. Anything
// already classified passes through; the rest is internal.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return apperr.NotFound("room not found")
	case errors.Is(err, repository.ErrRoomTypeNotFound):
		return apperr.NotFound("room type not found")
	case errors.Is(err, repository.ErrMovieNotFound):
		return apperr.NotFound("movie not found")
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return apperr.NotFound("showtime not found")
	case errors.Is(err, repository.ErrItemNotFound):
		return apperr.NotFound("item not found")
	case errors.Is(err, repository.ErrTransactionNotFound):
		return apperr.NotFound("transaction not found")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, repository.ErrDuplicateRoomName):
		return apperr.Conflict("room name already exists")
	case errors.Is(err, repository.ErrDuplicateRoomType):
		return apperr.Conflict("room type already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Conflict("email already exists")
	case errors.Is(err, repository.ErrInvalidToken):
		return apperr.Unauthorized("invalid refresh token")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Unavailable("request timed out", err)
	}
	return apperr.Internal(msg, err)
}

func hasDuplicates(ids []uint64) bool {
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
