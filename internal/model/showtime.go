package model

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// Showtime is a scheduled screening of a movie in a room. Duration is copied
// from the movie when the showtime is saved and EndTime is derived from it.
// GridRows and GridCols record the seat grid shape used to generate tickets.
type Showtime struct {
	ID          uint64    `db:"id" json:"id"`
	MovieID     uint64    `db:"movie_id" json:"movieId"`
	RoomID      uint64    `db:"room_id" json:"roomId"`
	StartTime   time.Time `db:"start_time" json:"startTime"`
	EndTime     time.Time `db:"end_time" json:"endTime"`
	Duration    int       `db:"duration_min" json:"duration"`
	SinglePrice int64     `db:"single_price" json:"singlePrice"`
	DoublePrice int64     `db:"double_price" json:"doublePrice"`
	GridRows    int       `db:"grid_rows" json:"gridRows"`
	GridCols    int       `db:"grid_cols" json:"gridCols"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Overlaps reports whether the showtime intersects [start, end). Showtimes
// that only touch at a boundary do not overlap.
func (s Showtime) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// Price is the ticket price of a seat class at this showtime.
func (s Showtime) Price(class seatgrid.Class) int64 {
	if class == seatgrid.Double {
		return s.DoublePrice
	}
	return s.SinglePrice
}

// ShowtimeFilter narrows a showtime listing. Zero values are ignored.
type ShowtimeFilter struct {
	From    time.Time // inclusive lower bound on StartTime
	To      time.Time // exclusive upper bound on StartTime
	RoomID  uint64
	MovieID uint64
}

// ShowtimeDetail is a showtime with its seat map. Tickets mirrors the grid
// shape; slots without a ticket are nil.
type ShowtimeDetail struct {
	Showtime
	Movie   *Movie          `json:"movie,omitempty"`
	Room    *Room           `json:"room,omitempty"`
	Tickets [][]*TicketView `json:"tickets"`
}
