package model

import "github.com/iliyamo/cinema-booking/internal/seatgrid"

// Seat is one slot of a room's grid. (RoomID, RowIndex, ColumnIndex) is
// unique. NONE seats occupy a slot but are never ticketed.
type Seat struct {
	ID          uint64         `db:"id" json:"id"`                   // seats.id
	RoomID      uint64         `db:"room_id" json:"roomId"`          // seats.room_id
	RowIndex    int            `db:"row_index" json:"rowIndex"`      // seats.row_index (0-based)
	ColumnIndex int            `db:"column_index" json:"columnIndex"` // seats.column_index (0-based)
	Class       seatgrid.Class `db:"class" json:"type"`              // seats.class
	Name        string         `db:"name" json:"name"`               // seats.name, e.g. B3
}

// Cell returns the grid address of the seat.
func (s Seat) Cell() seatgrid.Cell {
	return seatgrid.Cell{Row: s.RowIndex, Col: s.ColumnIndex}
}
