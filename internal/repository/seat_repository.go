package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// SeatRepo provides access to the seats table.
type SeatRepo struct {
	q sqlx.ExtContext
}

func NewSeatRepo(q sqlx.ExtContext) *SeatRepo { return &SeatRepo{q: q} }

// CreateSeats inserts seats in multi-row statements. IDs are not populated;
// reload with SeatsByRoom when they are needed.
func (r *SeatRepo) CreateSeats(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	err := bulkInsert(ctx, r.q,
		`INSERT INTO seats (room_id, row_index, column_index, class, name) VALUES `, `(?, ?, ?, ?, ?)`,
		len(seats), func(i int) []any {
			s := seats[i]
			return []any{s.RoomID, s.RowIndex, s.ColumnIndex, s.Class, s.Name}
		})
	if err != nil {
		return fmt.Errorf("insert seats: %w", err)
	}
	return nil
}

// SeatsByRoom returns the room's seats in row-major order.
func (r *SeatRepo) SeatsByRoom(ctx context.Context, roomID uint64) ([]model.Seat, error) {
	seats := []model.Seat{}
	err := sqlx.SelectContext(ctx, r.q, &seats,
		`SELECT id, room_id, row_index, column_index, class, name
		 FROM seats WHERE room_id = ? ORDER BY row_index, column_index`, roomID)
	return seats, err
}

// DeleteSeats physically removes the given seats.
func (r *SeatRepo) DeleteSeats(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM seats WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete seats: %w", err)
	}
	return nil
}

// UpdateSeatClass reclassifies a seat in place, keeping its identity.
func (r *SeatRepo) UpdateSeatClass(ctx context.Context, id uint64, class seatgrid.Class) error {
	_, err := r.q.ExecContext(ctx, `UPDATE seats SET class = ? WHERE id = ?`, class, id)
	return err
}
