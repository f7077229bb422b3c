package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/repository/memory"
)

const theaterOffset = 7 * time.Hour

var (
	theater = time.FixedZone("theater", int(theaterOffset/time.Second))
	// 2025-03-01 10:00 theater time.
	testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, theater)

	staff    = Caller{AccountID: 100, Role: model.RoleStaff}
	manager  = Caller{AccountID: 101, Role: model.RoleManager}
	owner    = Caller{AccountID: 102, Role: model.RoleOwner}
	customer = Caller{AccountID: 200, Role: model.RoleCustomer}
	other    = Caller{AccountID: 201, Role: model.RoleCustomer}
)

// testGrid has three SINGLE, two DOUBLE and one NONE seat.
var testGrid = [][]string{
	{"SINGLE", "SINGLE", "NONE"},
	{"DOUBLE", "DOUBLE", "SINGLE"},
}

type fixture struct {
	store     *memory.Store
	clock     *clock.Fixed
	events    *recordingPublisher
	rooms     *RoomService
	showtimes *ShowtimeService
	bookings  *BookingService
	catalog   *CatalogService
	accounts  *AccountService
	reports   *ReportService

	roomType *model.RoomType
	movie    *model.Movie // 120 minutes
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clk := clock.NewFixed(testNow, theaterOffset)
	events := &recordingPublisher{}
	f := &fixture{
		store:     store,
		clock:     clk,
		events:    events,
		rooms:     NewRoomService(store, clk),
		showtimes: NewShowtimeService(store, clk),
		bookings:  NewBookingService(store, clk, events),
		catalog:   NewCatalogService(store, clk),
		accounts: NewAccountService(store, clk, TokenConfig{
			Secret:     "test-secret",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
		}),
		reports: NewReportService(store, clk),
	}

	ctx := context.Background()
	var err error
	f.roomType, err = f.catalog.CreateRoomType(ctx, owner, "2D")
	require.NoError(t, err)
	f.movie, err = f.catalog.CreateMovie(ctx, staff, MovieInput{Title: "Arrival", Duration: 120})
	require.NoError(t, err)
	return f
}

func (f *fixture) room(t *testing.T, name string) *model.RoomDetail {
	t.Helper()
	r, err := f.rooms.Create(context.Background(), staff, RoomInput{Name: name, RoomTypeID: f.roomType.ID, Seats: testGrid})
	require.NoError(t, err)
	return r
}

func (f *fixture) showtime(t *testing.T, roomID uint64, start time.Time) *model.ShowtimeDetail {
	t.Helper()
	st, err := f.showtimes.Create(context.Background(), staff, ShowtimeInput{
		MovieID:     f.movie.ID,
		RoomID:      roomID,
		StartTime:   start,
		SinglePrice: 50,
		DoublePrice: 90,
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) item(t *testing.T, name string, price int64) *model.Item {
	t.Helper()
	it, err := f.catalog.CreateItem(context.Background(), staff, ItemInput{Name: name, Price: price})
	require.NoError(t, err)
	return it
}

// tickets lists the showtime's tickets in row-major order.
func (f *fixture) tickets(t *testing.T, showtimeID uint64) []model.TicketView {
	t.Helper()
	var out []model.TicketView
	require.NoError(t, f.store.View(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.TicketsByShowtime(context.Background(), showtimeID)
		return err
	}))
	return out
}

func ticketIDs(views []model.TicketView) []uint64 {
	ids := make([]uint64, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TransactionCreatedEvent
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, ev queue.TransactionCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []queue.TransactionCreatedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.TransactionCreatedEvent(nil), p.events...)
}
