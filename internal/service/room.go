package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// RoomInput creates a room. Seats is a rows-of-columns grid of seat classes.
type RoomInput struct {
	Name       string
	RoomTypeID uint64
	Seats      [][]string
}

// RoomUpdate renames, retypes and optionally reshapes a room. Seats is only
// read when SeatsModified is set.
type RoomUpdate struct {
	Name          string
	RoomTypeID    uint64
	Seats         [][]string
	SeatsModified bool
}

type RoomService struct {
	store repository.Store
	clock clock.Clock
}

func NewRoomService(store repository.Store, clk clock.Clock) *RoomService {
	return &RoomService{store: store, clock: clk}
}

func parseLayout(seats [][]string) (seatgrid.Layout, error) {
	layout, err := seatgrid.FromRows(seats)
	if err != nil {
		var ce *seatgrid.CellError
		if errors.As(err, &ce) {
			return seatgrid.Layout{}, apperr.Validation("invalid seat array",
				apperr.FieldError{Field: ce.Field(), Message: ce.Reason})
		}
		return seatgrid.Layout{}, apperr.Validation(err.Error())
	}
	return layout, nil
}

func roomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name is required", apperr.FieldError{Field: "name", Message: "required"})
	}
	return name, nil
}

// Create stores a room and one seat per grid slot, NONE slots included.
func (s *RoomService) Create(ctx context.Context, caller Caller, in RoomInput) (*model.RoomDetail, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	name, err := roomName(in.Name)
	if err != nil {
		return nil, err
	}
	layout, err := parseLayout(in.Seats)
	if err != nil {
		return nil, err
	}

	var out *model.RoomDetail
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetRoomType(ctx, in.RoomTypeID); err != nil {
			return err
		}
		taken, err := tx.RoomNameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrDuplicateRoomName
		}

		now := s.clock.Now()
		room := &model.Room{
			Name:       name,
			RoomTypeID: in.RoomTypeID,
			Status:     model.RoomActive,
			SeatRows:   layout.Rows(),
			SeatCols:   layout.Cols(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateRoom(ctx, room); err != nil {
			return err
		}

		seats := make([]model.Seat, 0, layout.Rows()*layout.Cols())
		for _, cell := range layout.Cells() {
			seats = append(seats, newSeat(room.ID, cell, layout.At(cell)))
		}
		if err := tx.CreateSeats(ctx, seats); err != nil {
			return err
		}
		out, err = roomDetail(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to create room")
	}
	return out, nil
}

// Update renames or retypes the room at any time. The seat grid can only be
// changed while the room has no showtime starting now or later; seats that
// stay inside the new shape keep their identity.
func (s *RoomService) Update(ctx context.Context, caller Caller, id uint64, in RoomUpdate) (*model.RoomDetail, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	name, err := roomName(in.Name)
	if err != nil {
		return nil, err
	}
	var layout seatgrid.Layout
	if in.SeatsModified {
		if layout, err = parseLayout(in.Seats); err != nil {
			return nil, err
		}
	}

	var out *model.RoomDetail
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return err
		}
		if !room.Active() {
			return repository.ErrRoomNotFound
		}
		if name != room.Name {
			taken, err := tx.RoomNameTaken(ctx, name, room.ID)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrDuplicateRoomName
			}
		}
		if in.RoomTypeID != room.RoomTypeID {
			if _, err := tx.GetRoomType(ctx, in.RoomTypeID); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if in.SeatsModified {
			upcoming, err := tx.HasShowtimeFrom(ctx, room.ID, now)
			if err != nil {
				return err
			}
			if upcoming {
				return apperr.Conflict("room has upcoming showtimes; seats cannot be changed")
			}
			if err := applySeatPlan(ctx, tx, room.ID, layout); err != nil {
				return err
			}
			room.SeatRows, room.SeatCols = layout.Rows(), layout.Cols()
		}

		room.Name = name
		room.RoomTypeID = in.RoomTypeID
		room.UpdatedAt = now
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		out, err = roomDetail(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to update room")
	}
	return out, nil
}

func applySeatPlan(ctx context.Context, tx repository.Tx, roomID uint64, layout seatgrid.Layout) error {
	seats, err := tx.SeatsByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	existing := make(map[seatgrid.Cell]seatgrid.SeatRef, len(seats))
	for _, seat := range seats {
		existing[seat.Cell()] = seatgrid.SeatRef{ID: seat.ID, Class: seat.Class}
	}

	plan := seatgrid.Diff(existing, layout)
	if plan.Empty() {
		return nil
	}
	if len(plan.Delete) > 0 {
		if err := tx.DeleteSeats(ctx, plan.Delete); err != nil {
			return err
		}
	}
	for _, p := range plan.Update {
		if err := tx.UpdateSeatClass(ctx, p.ID, p.Class); err != nil {
			return err
		}
	}
	if len(plan.Create) > 0 {
		created := make([]model.Seat, 0, len(plan.Create))
		for _, p := range plan.Create {
			created = append(created, newSeat(roomID, p.Cell, p.Class))
		}
		if err := tx.CreateSeats(ctx, created); err != nil {
			return err
		}
	}
	return nil
}

// Delete deactivates the room. Its seats stay so past tickets still resolve.
func (s *RoomService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if err := caller.require(model.StaffRoles...); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return err
		}
		if !room.Active() {
			return repository.ErrRoomNotFound
		}
		now := s.clock.Now()
		upcoming, err := tx.HasShowtimeFrom(ctx, room.ID, now)
		if err != nil {
			return err
		}
		if upcoming {
			return apperr.Conflict("room has upcoming showtimes and cannot be deleted")
		}
		room.Status = model.RoomInactive
		room.UpdatedAt = now
		return tx.UpdateRoom(ctx, room)
	})
	return translate(err, "failed to delete room")
}

func (s *RoomService) Get(ctx context.Context, id uint64) (*model.RoomDetail, error) {
	var out *model.RoomDetail
	err := s.store.View(ctx, func(tx repository.Tx) error {
		room, err := tx.GetRoom(ctx, id)
		if err != nil {
			return err
		}
		if !room.Active() {
			return repository.ErrRoomNotFound
		}
		out, err = roomDetail(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load room")
	}
	return out, nil
}

// RoomQuery filters a room listing. Zero values are ignored.
type RoomQuery struct {
	RoomTypeID uint64
}

// List returns active rooms without their grids.
func (s *RoomService) List(ctx context.Context, q RoomQuery) ([]model.Room, error) {
	var rooms []model.Room
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		rooms, err = tx.ListRooms(ctx, q.RoomTypeID)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list rooms")
	}
	return rooms, nil
}

func newSeat(roomID uint64, cell seatgrid.Cell, class seatgrid.Class) model.Seat {
	return model.Seat{
		RoomID:      roomID,
		RowIndex:    cell.Row,
		ColumnIndex: cell.Col,
		Class:       class,
		Name:        cell.Name(),
	}
}

func roomDetail(ctx context.Context, tx repository.Tx, room *model.Room) (*model.RoomDetail, error) {
	seats, err := tx.SeatsByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	grid := make([][]*model.Seat, room.SeatRows)
	for r := range grid {
		grid[r] = make([]*model.Seat, room.SeatCols)
	}
	for i := range seats {
		seat := seats[i]
		if seat.RowIndex < room.SeatRows && seat.ColumnIndex < room.SeatCols {
			grid[seat.RowIndex][seat.ColumnIndex] = &seat
		}
	}
	return &model.RoomDetail{Room: *room, Grid: grid}, nil
}
