package model

import "time"

// RoomStatus is the lifecycle state of a room. Deleting a room only marks it
// NONACTIVE so showtimes and tickets that reference its seats stay readable.
type RoomStatus string

const (
	RoomActive   RoomStatus = "ACTIVE"
	RoomInactive RoomStatus = "NONACTIVE"
)

// Room is a screening room. SeatRows and SeatCols record the shape of the
// grid set by the last create or resize.
type Room struct {
	ID         uint64     `db:"id" json:"id"`                   // rooms.id
	Name       string     `db:"name" json:"name"`               // rooms.name (unique)
	RoomTypeID uint64     `db:"room_type_id" json:"roomTypeId"` // rooms.room_type_id
	Status     RoomStatus `db:"status" json:"status"`           // rooms.status
	SeatRows   int        `db:"seat_rows" json:"seatRows"`      // rooms.seat_rows
	SeatCols   int        `db:"seat_cols" json:"seatCols"`      // rooms.seat_cols
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`    // rooms.created_at
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`    // rooms.updated_at
}

// Active reports whether showtimes may be scheduled in the room.
func (r Room) Active() bool { return r.Status == RoomActive }

// RoomDetail is a room together with its seat grid. Grid[r][c] is nil when
// no seat is stored at that slot.
type RoomDetail struct {
	Room
	Grid [][]*Seat `json:"seats"`
}
