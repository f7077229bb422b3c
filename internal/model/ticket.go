package model

import "github.com/iliyamo/cinema-booking/internal/seatgrid"

// Ticket is the bookable unit for one seat in one showtime. Once Booked is
// set the price and seat never change.
type Ticket struct {
	ID         uint64 `db:"id" json:"id"`
	ShowtimeID uint64 `db:"showtime_id" json:"showtimeId"`
	SeatID     uint64 `db:"seat_id" json:"seatId"`
	Price      int64  `db:"price" json:"price"`
	Booked     bool   `db:"is_booked" json:"isBooked"`
}

// TicketView is a ticket resolved to its seat.
type TicketView struct {
	Ticket
	SeatName    string         `db:"seat_name" json:"seatName"`
	SeatClass   seatgrid.Class `db:"seat_class" json:"seatType"`
	RowIndex    int            `db:"row_index" json:"rowIndex"`
	ColumnIndex int            `db:"column_index" json:"columnIndex"`
}
