package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

func TestBookingTotalsTicketsAndItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID) // A1 S, A2 S, B1 D, B2 D, B3 S
	popcorn := f.item(t, "Popcorn", 35)
	soda := f.item(t, "Soda", 20)

	tr, err := f.bookings.Create(ctx, customer, BookingRequest{
		TicketIDs: []uint64{tickets[2].ID, tickets[0].ID},
		Items:     []BookingItem{{ItemID: popcorn.ID, Quantity: 2}, {ItemID: soda.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(90+50+2*35+20), tr.TotalPrice)
	assert.Equal(t, []uint64{tickets[2].ID, tickets[0].ID}, tr.TicketIDs, "ticket order is preserved")
	require.Len(t, tr.Items, 2)
	assert.Equal(t, int64(35), tr.Items[0].UnitPrice)
	require.NotNil(t, tr.CustomerID)
	assert.Equal(t, customer.AccountID, *tr.CustomerID)
	assert.Nil(t, tr.StaffID)
	assert.Equal(t, st.ID, tr.ShowtimeID)
	assert.Equal(t, "Arrival", tr.MovieTitle)

	after := f.tickets(t, st.ID)
	assert.True(t, after[0].Booked)
	assert.False(t, after[1].Booked)
	assert.True(t, after[2].Booked)
}

func TestStaffSaleRecordsStaff(t *testing.T) {
	f := newFixture(t)
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	tr, err := f.bookings.Create(context.Background(), staff, BookingRequest{TicketIDs: []uint64{tickets[0].ID}})
	require.NoError(t, err)

	require.NotNil(t, tr.StaffID)
	assert.Equal(t, staff.AccountID, *tr.StaffID)
	assert.Nil(t, tr.CustomerID)
}

func TestBookingAlreadyBookedSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	_, err := f.bookings.Create(ctx, customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID}})
	require.NoError(t, err)

	_, err = f.bookings.Create(ctx, other, BookingRequest{TicketIDs: []uint64{tickets[1].ID, tickets[0].ID}})
	requireKind(t, err, apperr.KindConflict)
	assert.Contains(t, err.Error(), "seat A1 has already been booked")

	// The free ticket in the failed request stays free.
	assert.False(t, f.tickets(t, st.ID)[1].Booked)
}

func TestBookingIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	_, err := f.bookings.Create(ctx, customer, BookingRequest{
		TicketIDs: []uint64{tickets[0].ID, tickets[1].ID},
		Items:     []BookingItem{{ItemID: 9999, Quantity: 1}},
	})
	requireKind(t, err, apperr.KindNotFound)

	for _, tk := range f.tickets(t, st.ID) {
		assert.False(t, tk.Booked)
	}
	list, err := f.bookings.List(ctx, staff)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBookingRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	r2 := f.room(t, "Hall 2")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	st2 := f.showtime(t, r2.ID, testNow.Add(2*time.Hour))
	a := f.tickets(t, st.ID)
	b := f.tickets(t, st2.ID)
	popcorn := f.item(t, "Popcorn", 35)

	tests := []struct {
		name   string
		caller Caller
		req    BookingRequest
		kind   apperr.Kind
	}{
		{"anonymous", Caller{}, BookingRequest{TicketIDs: []uint64{a[0].ID}}, apperr.KindUnauthorized},
		{"no tickets", customer, BookingRequest{}, apperr.KindValidation},
		{"duplicate tickets", customer, BookingRequest{TicketIDs: []uint64{a[0].ID, a[0].ID}}, apperr.KindValidation},
		{"zero quantity", customer, BookingRequest{TicketIDs: []uint64{a[0].ID}, Items: []BookingItem{{ItemID: popcorn.ID}}}, apperr.KindValidation},
		{"duplicate items", customer, BookingRequest{TicketIDs: []uint64{a[0].ID}, Items: []BookingItem{{ItemID: popcorn.ID, Quantity: 1}, {ItemID: popcorn.ID, Quantity: 2}}}, apperr.KindValidation},
		{"unknown ticket", customer, BookingRequest{TicketIDs: []uint64{a[0].ID, 99999}}, apperr.KindNotFound},
		{"mixed showtimes", customer, BookingRequest{TicketIDs: []uint64{a[0].ID, b[0].ID}}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Create(ctx, tt.caller, tt.req)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestCancelledShowtimeTicketsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)
	require.NoError(t, f.showtimes.Delete(ctx, staff, st.ID))

	_, err := f.bookings.Create(ctx, customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID}})
	requireKind(t, err, apperr.KindNotFound)
	assert.Contains(t, err.Error(), "showtime has been cancelled")
}

func TestConcurrentBookingsOfOneTicketHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)
	target := tickets[3].ID

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			caller := Caller{AccountID: uint64(1000 + i), Role: customer.Role}
			// Half the callers also ask for a ticket nobody else wants.
			ids := []uint64{target}
			if i%2 == 0 && i/2 < 3 {
				ids = append(ids, tickets[i/2].ID)
			}
			_, err := f.bookings.Create(ctx, caller, BookingRequest{TicketIDs: ids})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.Is(err, apperr.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)

	list, err := f.bookings.List(ctx, staff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	booked := 0
	for _, tk := range f.tickets(t, st.ID) {
		if tk.Booked {
			booked++
		}
	}
	assert.Equal(t, len(list[0].TicketIDs), booked, "only the winner's tickets are booked")
}

func TestTransactionVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	mine, err := f.bookings.Create(ctx, customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID}})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	theirs, err := f.bookings.Create(ctx, other, BookingRequest{TicketIDs: []uint64{tickets[1].ID}})
	require.NoError(t, err)

	list, err := f.bookings.List(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := f.bookings.List(ctx, manager)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, theirs.ID, all[0].ID, "newest first")

	_, err = f.bookings.Get(ctx, customer, theirs.ID)
	requireKind(t, err, apperr.KindNotFound)
	got, err := f.bookings.Get(ctx, staff, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.TotalPrice, got.TotalPrice)
}

func TestBookingPublishesEvent(t *testing.T) {
	f := newFixture(t)
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	tr, err := f.bookings.Create(context.Background(), customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID, tickets[4].ID}})
	require.NoError(t, err)
	f.bookings.Wait()

	events := f.events.published()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, tr.ID, ev.TransactionID)
	assert.Equal(t, "Hall 1", ev.RoomName)
	assert.Equal(t, "Arrival", ev.MovieTitle)
	assert.ElementsMatch(t, []string{"A1", "B3"}, ev.Seats)
	assert.Equal(t, int64(100), ev.TotalPrice)
}

func TestDeletedItemKeepsHistoricalLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)
	popcorn := f.item(t, "Popcorn", 35)

	tr, err := f.bookings.Create(ctx, customer, BookingRequest{
		TicketIDs: []uint64{tickets[0].ID},
		Items:     []BookingItem{{ItemID: popcorn.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteItem(ctx, staff, popcorn.ID))

	got, err := f.bookings.Get(ctx, customer, tr.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(35), got.Items[0].UnitPrice)
	assert.Equal(t, int64(85), got.TotalPrice)
}

type failingPublisher struct{}

func (failingPublisher) PublishTransactionCreated(context.Context, queue.TransactionCreatedEvent) error {
	return errors.New("broker unreachable")
}

func TestFailedPublishIsLoggedOnceAndKeepsBooking(t *testing.T) {
	f := newFixture(t)
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	logger, hook := logtest.NewNullLogger()
	ctx := logging.ToContext(context.Background(), logrus.NewEntry(logger))
	bookings := NewBookingService(f.store, f.clock, failingPublisher{})

	tr, err := bookings.Create(ctx, customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID}})
	require.NoError(t, err)
	bookings.Wait()

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, tr.ID, e.Data["transaction_id"])
		}
	}
	assert.Equal(t, 1, warnings)
	assert.True(t, f.tickets(t, st.ID)[0].Booked)
}

func TestBookingChargesCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.room(t, "Hall 1")
	st := f.showtime(t, r.ID, testNow.Add(2*time.Hour))
	tickets := f.tickets(t, st.ID)

	_, err := f.showtimes.Update(ctx, staff, st.ID, ShowtimeInput{
		MovieID: f.movie.ID, RoomID: r.ID, StartTime: st.StartTime, SinglePrice: 65, DoublePrice: 110,
	})
	require.NoError(t, err)

	tr, err := f.bookings.Create(ctx, customer, BookingRequest{TicketIDs: []uint64{tickets[0].ID, tickets[2].ID}})
	require.NoError(t, err)

	var sum int64
	for _, tk := range f.tickets(t, st.ID) {
		if tk.Booked {
			sum += tk.Price
		}
	}
	assert.Equal(t, int64(65+110), tr.TotalPrice)
	assert.Equal(t, sum, tr.TotalPrice)
}
