package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

func TestCreateRoomStoresEverySlot(t *testing.T) {
	f := newFixture(t)

	r := f.room(t, "Hall 1")

	assert.Equal(t, model.RoomActive, r.Status)
	assert.Equal(t, 2, r.SeatRows)
	assert.Equal(t, 3, r.SeatCols)
	require.Len(t, r.Grid, 2)
	require.Len(t, r.Grid[0], 3)
	require.NotNil(t, r.Grid[0][2])
	assert.Equal(t, seatgrid.None, r.Grid[0][2].Class)
	assert.Equal(t, "B3", r.Grid[1][2].Name)
	assert.Equal(t, seatgrid.Double, r.Grid[1][0].Class)
}

func TestCreateRoomRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.room(t, "Hall 1")

	tests := []struct {
		name   string
		caller Caller
		in     RoomInput
		kind   apperr.Kind
	}{
		{"customer", customer, RoomInput{Name: "Hall 2", RoomTypeID: f.roomType.ID, Seats: testGrid}, apperr.KindForbidden},
		{"duplicate name", staff, RoomInput{Name: "Hall 1", RoomTypeID: f.roomType.ID, Seats: testGrid}, apperr.KindConflict},
		{"unknown room type", staff, RoomInput{Name: "Hall 2", RoomTypeID: 9999, Seats: testGrid}, apperr.KindNotFound},
		{"empty grid", staff, RoomInput{Name: "Hall 2", RoomTypeID: f.roomType.ID}, apperr.KindValidation},
		{"blank name", staff, RoomInput{Name: "  ", RoomTypeID: f.roomType.ID, Seats: testGrid}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rooms.Create(ctx, tt.caller, tt.in)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestCreateRoomReportsOffendingCell(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.Create(context.Background(), staff, RoomInput{
		Name:       "Hall 2",
		RoomTypeID: f.roomType.ID,
		Seats:      [][]string{{"SINGLE", "SINGLE"}, {"SINGLE", "VIP"}},
	})

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "seats[1][1]", ae.Fields[0].Field)
}

func TestResizeBlockedByUpcomingShowtime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	f.showtime(t, r.ID, testNow.Add(2*time.Hour))

	_, err := f.rooms.Update(ctx, staff, r.ID, RoomUpdate{
		Name:          "Hall 1",
		RoomTypeID:    f.roomType.ID,
		Seats:         [][]string{{"SINGLE"}},
		SeatsModified: true,
	})
	requireKind(t, err, apperr.KindConflict)

	// Renaming does not touch seats and is always allowed.
	renamed, err := f.rooms.Update(ctx, staff, r.ID, RoomUpdate{Name: "Hall One", RoomTypeID: f.roomType.ID})
	require.NoError(t, err)
	assert.Equal(t, "Hall One", renamed.Name)
	assert.Equal(t, 3, renamed.SeatCols)
}

func TestResizePreservesSeatIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))

	// Once the showtime has started the room may be reshaped.
	f.clock.Set(st.StartTime.Add(time.Minute))

	keptA1 := r.Grid[0][0].ID
	keptB1 := r.Grid[1][0].ID
	updated, err := f.rooms.Update(ctx, staff, r.ID, RoomUpdate{
		Name:       "Hall 1",
		RoomTypeID: f.roomType.ID,
		Seats: [][]string{
			{"SINGLE", "DOUBLE"},
			{"DOUBLE", "NONE"},
			{"SINGLE", "SINGLE"},
		},
		SeatsModified: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.SeatRows)
	assert.Equal(t, 2, updated.SeatCols)
	assert.Equal(t, keptA1, updated.Grid[0][0].ID)
	assert.Equal(t, keptB1, updated.Grid[1][0].ID)
	assert.Equal(t, r.Grid[0][1].ID, updated.Grid[0][1].ID, "reclassified seat keeps its id")
	assert.Equal(t, seatgrid.Double, updated.Grid[0][1].Class)
	assert.Equal(t, "C2", updated.Grid[2][1].Name)

	seen := map[uint64]bool{}
	for _, row := range updated.Grid {
		for _, seat := range row {
			require.NotNil(t, seat)
			assert.False(t, seen[seat.ID])
			seen[seat.ID] = true
		}
	}
	assert.Len(t, seen, 6)

	// Past tickets on dropped seats no longer resolve but the showtime stays readable.
	detail, err := f.showtimes.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Tickets, 2)
}

func TestDeleteRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(time.Hour))

	requireKind(t, f.rooms.Delete(ctx, staff, r.ID), apperr.KindConflict)

	f.clock.Set(st.StartTime)
	requireKind(t, f.rooms.Delete(ctx, staff, r.ID), apperr.KindConflict)

	f.clock.Set(st.StartTime.Add(time.Second))
	require.NoError(t, f.rooms.Delete(ctx, staff, r.ID))

	_, err := f.rooms.Get(ctx, r.ID)
	requireKind(t, err, apperr.KindNotFound)
	rooms, err := f.rooms.List(ctx, RoomQuery{})
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = f.showtimes.Create(ctx, staff, ShowtimeInput{MovieID: f.movie.ID, RoomID: r.ID, StartTime: testNow.Add(48 * time.Hour)})
	requireKind(t, err, apperr.KindNotFound)
}

func TestExpiredDeadlineIsUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.rooms.List(ctx, RoomQuery{})
	requireKind(t, err, apperr.KindUnavailable)
}

func TestListRoomsByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	imax, err := f.catalog.CreateRoomType(ctx, owner, "IMAX")
	require.NoError(t, err)
	f.room(t, "Hall 1")
	big, err := f.rooms.Create(ctx, staff, RoomInput{Name: "Hall 2", RoomTypeID: imax.ID, Seats: testGrid})
	require.NoError(t, err)

	all, err := f.rooms.List(ctx, RoomQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyImax, err := f.rooms.List(ctx, RoomQuery{RoomTypeID: imax.ID})
	require.NoError(t, err)
	require.Len(t, onlyImax, 1)
	assert.Equal(t, big.ID, onlyImax[0].ID)

	none, err := f.rooms.List(ctx, RoomQuery{RoomTypeID: 9999})
	require.NoError(t, err)
	assert.Empty(t, none)
}
