// Package repository defines the persistence contracts of the booking
// service and their MySQL implementation. The sentinel errors below let the
// service layer tell missing or duplicate records apart from store failures.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrDuplicateRoomName   = errors.New("room name already exists")
	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrDuplicateRoomType   = errors.New("room type already exists")
	ErrMovieNotFound       = errors.New("movie not found")
	ErrShowtimeNotFound    = errors.New("showtime not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailExists         = errors.New("email already exists")
	// ErrInvalidToken covers unknown, expired and revoked refresh tokens.
	ErrInvalidToken = errors.New("invalid refresh token")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to sentinel and passes other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
