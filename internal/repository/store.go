package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// Store runs units of work. Everything fn does through the Tx commits
// together when fn returns nil and is discarded otherwise. Inside InTx a read
// issued after a Lock* call sees everything committed by earlier holders of
// that lock.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
	// View runs fn in a read-only unit of work.
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of queries available inside a unit of work.
type Tx interface {
	RoomQueries
	SeatQueries
	ShowtimeQueries
	TicketQueries
	TransactionQueries
	CatalogQueries
	UserQueries
	ReportQueries
}

type RoomQueries interface {
	CreateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	// LockRoom reads the room and holds it exclusively until the unit of
	// work ends. Scheduling and seat changes for one room serialize on it.
	LockRoom(ctx context.Context, id uint64) (*model.Room, error)
	// ListRooms returns active rooms, only those of roomTypeID when it is
	// non-zero.
	ListRooms(ctx context.Context, roomTypeID uint64) ([]model.Room, error)
	RoomNameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)
	UpdateRoom(ctx context.Context, r *model.Room) error
}

type SeatQueries interface {
	CreateSeats(ctx context.Context, seats []model.Seat) error
	SeatsByRoom(ctx context.Context, roomID uint64) ([]model.Seat, error)
	DeleteSeats(ctx context.Context, ids []uint64) error
	UpdateSeatClass(ctx context.Context, id uint64, class seatgrid.Class) error
}

type ShowtimeQueries interface {
	CreateShowtime(ctx context.Context, s *model.Showtime) error
	GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
	// LockShowtime reads the showtime and holds it exclusively.
	LockShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
	// ShareLockShowtime blocks exclusive lockers of the showtime until the
	// unit of work ends. Bookings take it so edits cannot interleave.
	ShareLockShowtime(ctx context.Context, id uint64) error
	// FindOverlapping returns showtimes of the room intersecting
	// [start, end), ignoring excludeID.
	FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error)
	// HasShowtimeFrom reports whether the room has a showtime starting at
	// or after from.
	HasShowtimeFrom(ctx context.Context, roomID uint64, from time.Time) (bool, error)
	UpdateShowtime(ctx context.Context, s *model.Showtime) error
	DeleteShowtime(ctx context.Context, id uint64) error
	ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error)
}

type TicketQueries interface {
	CreateTickets(ctx context.Context, tickets []model.Ticket) error
	TicketsByShowtime(ctx context.Context, showtimeID uint64) ([]model.TicketView, error)
	TicketsByIDs(ctx context.Context, ids []uint64) ([]model.TicketView, error)
	CountBookedTickets(ctx context.Context, showtimeID uint64) (int, error)
	DeleteTicketsByShowtime(ctx context.Context, showtimeID uint64) error
	// RepriceTickets sets the price of the showtime's unbooked tickets of
	// one seat class and returns how many changed.
	RepriceTickets(ctx context.Context, showtimeID uint64, class seatgrid.Class, price int64) (int64, error)
	// MarkTicketBooked flips the ticket from unbooked to booked. It
	// returns false when the ticket was already booked.
	MarkTicketBooked(ctx context.Context, id uint64) (bool, error)
}

type TransactionQueries interface {
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, id uint64) (*model.TransactionView, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.TransactionView, error)
}

type CatalogQueries interface {
	CreateItem(ctx context.Context, it *model.Item) error
	GetItem(ctx context.Context, id uint64) (*model.Item, error)
	ItemsByIDs(ctx context.Context, ids []uint64) ([]model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	UpdateItem(ctx context.Context, it *model.Item) error
	DeleteItem(ctx context.Context, id uint64) error

	CreateMovie(ctx context.Context, m *model.Movie) error
	GetMovie(ctx context.Context, id uint64) (*model.Movie, error)
	ListMovies(ctx context.Context) ([]model.Movie, error)

	CreateRoomType(ctx context.Context, rt *model.RoomType) error
	GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error)
	ListRoomTypes(ctx context.Context) ([]model.RoomType, error)
}

type UserQueries interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
	// ListActiveUsers returns active accounts holding one of roles, ordered
	// by name.
	ListActiveUsers(ctx context.Context, roles ...model.Role) ([]model.User, error)
	// UpdateUser saves email, name, password hash, role and active flag.
	UpdateUser(ctx context.Context, u *model.User) error

	StoreRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefreshToken returns the owner of a live token.
	ValidateRefreshToken(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error
	RevokeUserTokens(ctx context.Context, userID uint64, now time.Time) error
}

type ReportQueries interface {
	// RevenueBetween sums totals of transactions created in [from, to).
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)
	// TicketStatsBetween counts tickets of showtimes starting in [from, to).
	TicketStatsBetween(ctx context.Context, from, to time.Time) (model.TicketStats, error)
}
