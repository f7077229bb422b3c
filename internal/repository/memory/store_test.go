package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

func TestInTxDiscardsWorkOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.CreateRoom(ctx, &model.Room{Name: "Hall 1", Status: model.RoomActive}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		rooms, err := tx.ListRooms(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, rooms)
		return nil
	}))
}

func TestInTxRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().InTx(ctx, func(repository.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRoomNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateRoom(ctx, &model.Room{Name: "Hall 1", Status: model.RoomActive})
	}))
	err := s.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateRoom(ctx, &model.Room{Name: "Hall 1", Status: model.RoomActive})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateRoomName)
}

func TestMarkTicketBookedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	var ticketID uint64
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		seats := []model.Seat{{RoomID: 1, RowIndex: 0, ColumnIndex: 0, Class: seatgrid.Single, Name: "A1"}}
		if err := tx.CreateSeats(ctx, seats); err != nil {
			return err
		}
		all, _ := tx.SeatsByRoom(ctx, 1)
		if err := tx.CreateTickets(ctx, []model.Ticket{{ShowtimeID: 9, SeatID: all[0].ID, Price: 50}}); err != nil {
			return err
		}
		views, _ := tx.TicketsByShowtime(ctx, 9)
		ticketID = views[0].ID
		return nil
	}))

	var first, second bool
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		first, err = tx.MarkTicketBooked(ctx, ticketID)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		second, err = tx.MarkTicketBooked(ctx, ticketID)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.StoreRefreshToken(ctx, 7, "h1", now.Add(time.Hour))
	}))
	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		uid, err := tx.ValidateRefreshToken(ctx, "h1", now)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), uid)

		_, err = tx.ValidateRefreshToken(ctx, "h1", now.Add(2*time.Hour))
		assert.ErrorIs(t, err, repository.ErrInvalidToken)
		return nil
	}))
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.RevokeRefreshToken(ctx, "h1", now)
	}))
	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		_, err := tx.ValidateRefreshToken(ctx, "h1", now)
		assert.ErrorIs(t, err, repository.ErrInvalidToken)
		return nil
	}))
}
