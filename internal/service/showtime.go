package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/metrics"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// ShowtimeInput schedules a movie in a room.
type ShowtimeInput struct {
	MovieID     uint64
	RoomID      uint64
	StartTime   time.Time
	SinglePrice int64
	DoublePrice int64
}

func (in ShowtimeInput) validate() error {
	var fields []apperr.FieldError
	if in.SinglePrice < 0 {
		fields = append(fields, apperr.FieldError{Field: "singlePrice", Message: "must be greater than or equal to 0"})
	}
	if in.DoublePrice < 0 {
		fields = append(fields, apperr.FieldError{Field: "doublePrice", Message: "must be greater than or equal to 0"})
	}
	if in.StartTime.IsZero() {
		fields = append(fields, apperr.FieldError{Field: "startTime", Message: "required"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid showtime", fields...)
	}
	return nil
}

func (in ShowtimeInput) price(class seatgrid.Class) int64 {
	if class == seatgrid.Double {
		return in.DoublePrice
	}
	return in.SinglePrice
}

// ShowtimeQuery filters a listing. A zero Day lists upcoming showtimes.
type ShowtimeQuery struct {
	Day     time.Time
	RoomID  uint64
	MovieID uint64
}

type ShowtimeService struct {
	store repository.Store
	clock clock.Clock
}

func NewShowtimeService(store repository.Store, clk clock.Clock) *ShowtimeService {
	return &ShowtimeService{store: store, clock: clk}
}

// Create schedules a showtime and issues one ticket per bookable seat of the
// room, priced by seat class. The room row stays locked from the overlap
// check until commit so two schedulers cannot both claim the same slot.
func (s *ShowtimeService) Create(ctx context.Context, caller Caller, in ShowtimeInput) (*model.ShowtimeDetail, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *model.ShowtimeDetail
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		room, err := lockActiveRoom(ctx, tx, in.RoomID)
		if err != nil {
			return err
		}
		movie, err := tx.GetMovie(ctx, in.MovieID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		start, end, err := s.slot(ctx, tx, in, movie, 0)
		if err != nil {
			return err
		}

		st := &model.Showtime{
			MovieID:     movie.ID,
			RoomID:      room.ID,
			StartTime:   start,
			EndTime:     end,
			Duration:    movie.Duration,
			SinglePrice: in.SinglePrice,
			DoublePrice: in.DoublePrice,
			GridRows:    room.SeatRows,
			GridCols:    room.SeatCols,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateShowtime(ctx, st); err != nil {
			return err
		}
		if err := issueTickets(ctx, tx, st, in); err != nil {
			return err
		}
		out, err = showtimeDetail(ctx, tx, st)
		return err
	})
	err = translate(err, "failed to create showtime")
	metrics.ObserveShowtime("create", outcome(err))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// slot checks that [start, start+duration) is in the future and free in the
// room. The caller must hold the room lock.
func (s *ShowtimeService) slot(ctx context.Context, tx repository.Tx, in ShowtimeInput, movie *model.Movie, self uint64) (time.Time, time.Time, error) {
	start := in.StartTime.In(s.clock.Location())
	if start.Before(s.clock.Now()) {
		return time.Time{}, time.Time{}, apperr.Validation("start time is in the past",
			apperr.FieldError{Field: "startTime", Message: "must not be in the past"})
	}
	end := start.Add(time.Duration(movie.Duration) * time.Minute)

	clashes, err := tx.FindOverlapping(ctx, in.RoomID, start, end, self)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(clashes) > 0 {
		c := clashes[0]
		loc := s.clock.Location()
		return time.Time{}, time.Time{}, apperr.Conflictf("showtime conflicts with showtime %d (%s - %s)",
			c.ID, c.StartTime.In(loc).Format("2006-01-02 15:04"), c.EndTime.In(loc).Format("15:04"))
	}
	return start, end, nil
}

// Update edits a showtime that has no booked tickets. Moving it to another
// room, or editing a showtime whose tickets no longer match the room's
// seats, regenerates its tickets; otherwise a price change reprices them.
func (s *ShowtimeService) Update(ctx context.Context, caller Caller, id uint64, in ShowtimeInput) (*model.ShowtimeDetail, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *model.ShowtimeDetail
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		st, err := tx.LockShowtime(ctx, id)
		if err != nil {
			return err
		}
		room, err := lockActiveRoom(ctx, tx, in.RoomID)
		if err != nil {
			return err
		}
		if err := ensureUnbooked(ctx, tx, st.ID); err != nil {
			return err
		}
		movie, err := tx.GetMovie(ctx, in.MovieID)
		if err != nil {
			return err
		}
		start, end, err := s.slot(ctx, tx, in, movie, st.ID)
		if err != nil {
			return err
		}
		stale := room.ID != st.RoomID
		if !stale {
			if stale, err = ticketsStale(ctx, tx, st, room); err != nil {
				return err
			}
		}

		switch {
		case stale:
			if err := tx.DeleteTicketsByShowtime(ctx, st.ID); err != nil {
				return err
			}
			if err := issueTickets(ctx, tx, &model.Showtime{ID: st.ID, RoomID: room.ID}, in); err != nil {
				return err
			}
			st.GridRows, st.GridCols = room.SeatRows, room.SeatCols
		default:
			if in.SinglePrice != st.SinglePrice {
				if _, err := tx.RepriceTickets(ctx, st.ID, seatgrid.Single, in.SinglePrice); err != nil {
					return err
				}
			}
			if in.DoublePrice != st.DoublePrice {
				if _, err := tx.RepriceTickets(ctx, st.ID, seatgrid.Double, in.DoublePrice); err != nil {
					return err
				}
			}
		}

		st.MovieID = movie.ID
		st.RoomID = room.ID
		st.StartTime, st.EndTime = start, end
		st.Duration = movie.Duration
		st.SinglePrice, st.DoublePrice = in.SinglePrice, in.DoublePrice
		st.UpdatedAt = s.clock.Now()
		if err := tx.UpdateShowtime(ctx, st); err != nil {
			return err
		}
		out, err = showtimeDetail(ctx, tx, st)
		return err
	})
	err = translate(err, "failed to update showtime")
	metrics.ObserveShowtime("update", outcome(err))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a showtime and its tickets unless a ticket was booked.
func (s *ShowtimeService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if err := caller.require(model.StaffRoles...); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		st, err := tx.LockShowtime(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureUnbooked(ctx, tx, st.ID); err != nil {
			return err
		}
		if err := tx.DeleteTicketsByShowtime(ctx, st.ID); err != nil {
			return err
		}
		return tx.DeleteShowtime(ctx, st.ID)
	})
	err = translate(err, "failed to delete showtime")
	metrics.ObserveShowtime("delete", outcome(err))
	return err
}

// Get returns the showtime with its ticket grid.
func (s *ShowtimeService) Get(ctx context.Context, id uint64) (*model.ShowtimeDetail, error) {
	var out *model.ShowtimeDetail
	err := s.store.View(ctx, func(tx repository.Tx) error {
		st, err := tx.GetShowtime(ctx, id)
		if err != nil {
			return err
		}
		out, err = showtimeDetail(ctx, tx, st)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load showtime")
	}
	return out, nil
}

// List returns showtimes of one theater-local day, or every showtime that
// has not started yet when q.Day is zero. Results are ordered by start.
func (s *ShowtimeService) List(ctx context.Context, q ShowtimeQuery) ([]model.Showtime, error) {
	f := model.ShowtimeFilter{RoomID: q.RoomID, MovieID: q.MovieID}
	if q.Day.IsZero() {
		f.From = s.clock.Now()
	} else {
		f.From = clock.StartOfDay(s.clock, q.Day)
		f.To = clock.NextDay(s.clock, q.Day)
	}

	var out []model.Showtime
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListShowtimes(ctx, f)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list showtimes")
	}
	return out, nil
}

func lockActiveRoom(ctx context.Context, tx repository.Tx, id uint64) (*model.Room, error) {
	room, err := tx.LockRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if !room.Active() {
		return nil, repository.ErrRoomNotFound
	}
	return room, nil
}

func ensureUnbooked(ctx context.Context, tx repository.Tx, showtimeID uint64) error {
	booked, err := tx.CountBookedTickets(ctx, showtimeID)
	if err != nil {
		return err
	}
	if booked > 0 {
		return apperr.Conflict("showtime already has booked tickets")
	}
	return nil
}

// ticketsStale reports whether the showtime's tickets no longer cover the
// room's bookable seats at the showtime's prices. This happens when the room
// was reshaped after the showtime started.
func ticketsStale(ctx context.Context, tx repository.Tx, st *model.Showtime, room *model.Room) (bool, error) {
	if st.GridRows != room.SeatRows || st.GridCols != room.SeatCols {
		return true, nil
	}
	seats, err := tx.SeatsByRoom(ctx, room.ID)
	if err != nil {
		return false, err
	}
	tickets, err := tx.TicketsByShowtime(ctx, st.ID)
	if err != nil {
		return false, err
	}

	cells := make(map[seatgrid.Cell]seatgrid.Class, len(seats))
	for _, seat := range seats {
		cells[seat.Cell()] = seat.Class
	}
	layout := seatgrid.FromCells(room.SeatRows, room.SeatCols, cells)
	if len(tickets) != layout.Bookable() {
		return true, nil
	}
	for _, t := range tickets {
		class := layout.At(seatgrid.Cell{Row: t.RowIndex, Col: t.ColumnIndex})
		if !class.Bookable() || t.Price != st.Price(class) {
			return true, nil
		}
	}
	return false, nil
}

func issueTickets(ctx context.Context, tx repository.Tx, st *model.Showtime, in ShowtimeInput) error {
	seats, err := tx.SeatsByRoom(ctx, st.RoomID)
	if err != nil {
		return err
	}
	tickets := make([]model.Ticket, 0, len(seats))
	for _, seat := range seats {
		if !seat.Class.Bookable() {
			continue
		}
		tickets = append(tickets, model.Ticket{
			ShowtimeID: st.ID,
			SeatID:     seat.ID,
			Price:      in.price(seat.Class),
		})
	}
	if len(tickets) == 0 {
		return nil
	}
	return tx.CreateTickets(ctx, tickets)
}

func showtimeDetail(ctx context.Context, tx repository.Tx, st *model.Showtime) (*model.ShowtimeDetail, error) {
	tickets, err := tx.TicketsByShowtime(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	grid := make([][]*model.TicketView, st.GridRows)
	for r := range grid {
		grid[r] = make([]*model.TicketView, st.GridCols)
	}
	for i := range tickets {
		t := tickets[i]
		if t.RowIndex < st.GridRows && t.ColumnIndex < st.GridCols {
			grid[t.RowIndex][t.ColumnIndex] = &t
		}
	}

	out := &model.ShowtimeDetail{Showtime: *st, Tickets: grid}
	if movie, err := tx.GetMovie(ctx, st.MovieID); err == nil {
		out.Movie = movie
	}
	if room, err := tx.GetRoom(ctx, st.RoomID); err == nil {
		out.Room = room
	}
	return out, nil
}

// outcome labels a translated service error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case apperr.Is(err, apperr.KindConflict):
		return metrics.OutcomeConflict
	case apperr.KindOf(err) == apperr.KindInternal, apperr.Is(err, apperr.KindUnavailable):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
