package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const roomColumns = `id, name, room_type_id, status, seat_rows, seat_cols, created_at, updated_at`

// RoomRepo provides access to the rooms table.
type RoomRepo struct {
	q sqlx.ExtContext
}

func NewRoomRepo(q sqlx.ExtContext) *RoomRepo { return &RoomRepo{q: q} }

// CreateRoom inserts a room and sets its ID.
func (r *RoomRepo) CreateRoom(ctx context.Context, room *model.Room) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO rooms (name, room_type_id, status, seat_rows, seat_cols, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Name, room.RoomTypeID, room.Status, room.SeatRows, room.SeatCols,
		room.CreatedAt.UTC(), room.UpdatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateRoomName
		}
		return fmt.Errorf("insert room: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// GetRoom returns the room with the given ID, active or not.
func (r *RoomRepo) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := sqlx.GetContext(ctx, r.q, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return &room, nil
}

// LockRoom is GetRoom with SELECT ... FOR UPDATE.
func (r *RoomRepo) LockRoom(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := sqlx.GetContext(ctx, r.q, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return &room, nil
}

// ListRooms returns active rooms ordered by name.
func (r *RoomRepo) ListRooms(ctx context.Context, roomTypeID uint64) ([]model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE status = ?`
	args := []any{model.RoomActive}
	if roomTypeID != 0 {
		query += ` AND room_type_id = ?`
		args = append(args, roomTypeID)
	}
	rooms := []model.Room{}
	err := sqlx.SelectContext(ctx, r.q, &rooms, query+` ORDER BY name`, args...)
	return rooms, err
}

// RoomNameTaken reports whether another room (active or not) uses name.
func (r *RoomRepo) RoomNameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var taken bool
	err := sqlx.GetContext(ctx, r.q, &taken,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE name = ? AND id <> ?)`, name, excludeID)
	return taken, err
}

// UpdateRoom saves every mutable column of the room.
func (r *RoomRepo) UpdateRoom(ctx context.Context, room *model.Room) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET name = ?, room_type_id = ?, status = ?, seat_rows = ?, seat_cols = ?, updated_at = ?
		 WHERE id = ?`,
		room.Name, room.RoomTypeID, room.Status, room.SeatRows, room.SeatCols, room.UpdatedAt.UTC(), room.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateRoomName
		}
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}
