package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/metrics"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, ev queue.TransactionCreatedEvent) error
}

// BookingItem is one concession line of a booking request.
type BookingItem struct {
	ItemID   uint64
	Quantity int
}

// BookingRequest books TicketIDs, which must all belong to one showtime,
// together with optional concession items.
type BookingRequest struct {
	TicketIDs []uint64
	Items     []BookingItem
}

func (r BookingRequest) validate() error {
	var fields []apperr.FieldError
	if len(r.TicketIDs) == 0 {
		fields = append(fields, apperr.FieldError{Field: "tickets", Message: "at least one ticket is required"})
	} else if hasDuplicates(r.TicketIDs) {
		fields = append(fields, apperr.FieldError{Field: "tickets", Message: "tickets must be unique"})
	}
	itemIDs := make([]uint64, 0, len(r.Items))
	for i, it := range r.Items {
		if it.Quantity < 1 {
			fields = append(fields, apperr.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be at least 1"})
		}
		itemIDs = append(itemIDs, it.ItemID)
	}
	if hasDuplicates(itemIDs) {
		fields = append(fields, apperr.FieldError{Field: "items", Message: "items must be unique"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid transaction", fields...)
	}
	return nil
}

type BookingService struct {
	store  repository.Store
	clock  clock.Clock
	events EventPublisher

	// pending tracks background publishes so shutdown can drain them.
	pending sync.WaitGroup
}

// NewBookingService builds the booking service. events may be nil, in which
// case nothing is published.
func NewBookingService(store repository.Store, clk clock.Clock, events EventPublisher) *BookingService {
	return &BookingService{store: store, clock: clk, events: events}
}

// Create books the requested tickets as one transaction. Either every
// ticket is flipped to booked and the transaction is stored, or nothing
// changes. When two requests race for a ticket exactly one of them wins; the
// other gets a conflict naming the seat.
func (s *BookingService) Create(ctx context.Context, caller Caller, req BookingRequest) (*model.TransactionView, error) {
	if caller.AccountID == 0 {
		return nil, apperr.Unauthorized("authentication required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	began := time.Now()
	var (
		out   *model.TransactionView
		event queue.TransactionCreatedEvent
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		tickets, err := loadTickets(ctx, tx, req.TicketIDs)
		if err != nil {
			return err
		}
		showtimeID := tickets[0].ShowtimeID
		if err := tx.ShareLockShowtime(ctx, showtimeID); err != nil {
			if errors.Is(err, repository.ErrShowtimeNotFound) {
				return apperr.NotFound("showtime has been cancelled")
			}
			return err
		}
		// Prices and booked flags are read again under the lock; an edit
		// that committed before it was granted may have changed them.
		if tickets, err = loadTickets(ctx, tx, req.TicketIDs); err != nil {
			return err
		}
		for _, t := range tickets {
			if t.Booked {
				return apperr.Conflictf("seat %s has already been booked", t.SeatName)
			}
		}

		lines, itemTotal, err := resolveItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		total := itemTotal
		for _, t := range tickets {
			total += t.Price
		}

		// Flip in ascending id order so concurrent bookings acquire row locks
		// in the same order.
		sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
		for _, t := range tickets {
			ok, err := tx.MarkTicketBooked(ctx, t.ID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Conflictf("seat %s has already been booked", t.SeatName)
			}
		}

		tr := &model.Transaction{
			TotalPrice: total,
			CreatedAt:  s.clock.Now(),
			TicketIDs:  append([]uint64(nil), req.TicketIDs...),
			Items:      lines,
		}
		buyer := caller.AccountID
		if caller.Role == model.RoleCustomer {
			tr.CustomerID = &buyer
		} else {
			tr.StaffID = &buyer
		}
		if err := tx.CreateTransaction(ctx, tr); err != nil {
			return err
		}

		out, err = tx.GetTransaction(ctx, tr.ID)
		if err != nil {
			return err
		}
		event = s.buildEvent(ctx, tx, out, tickets)
		return nil
	})
	err = translate(err, "failed to create transaction")

	res := outcome(err)
	if out != nil {
		metrics.ObserveBooking(res, len(out.TicketIDs), out.TotalPrice, time.Since(began))
	} else {
		metrics.ObserveBooking(res, 0, 0, time.Since(began))
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event)
	return out, nil
}

// loadTickets fetches the requested tickets, which must all exist and belong
// to one showtime.
func loadTickets(ctx context.Context, tx repository.Tx, ids []uint64) ([]model.TicketView, error) {
	tickets, err := tx.TicketsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tickets) != len(ids) {
		return nil, apperr.NotFound("showtime has been cancelled")
	}
	showtimeID := tickets[0].ShowtimeID
	for _, t := range tickets[1:] {
		if t.ShowtimeID != showtimeID {
			return nil, apperr.Validation("tickets must belong to the same showtime",
				apperr.FieldError{Field: "tickets", Message: "mixed showtimes"})
		}
	}
	return tickets, nil
}

func resolveItems(ctx context.Context, tx repository.Tx, req []BookingItem) ([]model.TransactionItem, int64, error) {
	lines := make([]model.TransactionItem, 0, len(req))
	if len(req) == 0 {
		return lines, 0, nil
	}
	ids := make([]uint64, 0, len(req))
	for _, it := range req {
		ids = append(ids, it.ItemID)
	}
	items, err := tx.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint64]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var total int64
	for _, it := range req {
		item, ok := byID[it.ItemID]
		if !ok {
			return nil, 0, apperr.NotFound(fmt.Sprintf("item %d does not exist", it.ItemID))
		}
		lines = append(lines, model.TransactionItem{ItemID: item.ID, Quantity: it.Quantity, UnitPrice: item.Price})
		total += item.Price * int64(it.Quantity)
	}
	return lines, total, nil
}

func (s *BookingService) buildEvent(ctx context.Context, tx repository.Tx, v *model.TransactionView, tickets []model.TicketView) queue.TransactionCreatedEvent {
	loc := s.clock.Location()
	ev := queue.TransactionCreatedEvent{
		TransactionID: v.ID,
		CustomerID:    v.CustomerID,
		StaffID:       v.StaffID,
		ShowtimeID:    v.ShowtimeID,
		MovieTitle:    v.MovieTitle,
		StartsAt:      v.ShowtimeStart.In(loc).Format(time.RFC3339),
		ItemCount:     len(v.Items),
		TotalPrice:    v.TotalPrice,
		CreatedAt:     v.CreatedAt.In(loc).Format(time.RFC3339),
	}
	for _, t := range tickets {
		ev.Seats = append(ev.Seats, t.SeatName)
	}
	if st, err := tx.GetShowtime(ctx, v.ShowtimeID); err == nil {
		if room, err := tx.GetRoom(ctx, st.RoomID); err == nil {
			ev.RoomName = room.Name
		}
	}
	return ev
}

// publish sends the event in the background. The booking is already
// committed, so a broker failure is only logged.
func (s *BookingService) publish(ctx context.Context, ev queue.TransactionCreatedEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.events.PublishTransactionCreated(ctx, ev); err != nil {
			logging.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
				"queue":          queue.TransactionCreatedQueue,
				"transaction_id": ev.TransactionID,
			}).Warn("transaction.created not published")
		}
	}()
}

// Wait blocks until background publishes have finished.
func (s *BookingService) Wait() { s.pending.Wait() }

// List returns the caller's transactions, newest first. Staff see every
// transaction; customers only their own.
func (s *BookingService) List(ctx context.Context, caller Caller) ([]model.TransactionView, error) {
	if caller.AccountID == 0 {
		return nil, apperr.Unauthorized("authentication required")
	}
	f := model.TransactionFilter{}
	if !caller.Role.IsStaff() {
		id := caller.AccountID
		f.CustomerID = &id
	}
	var out []model.TransactionView
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListTransactions(ctx, f)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list transactions")
	}
	return out, nil
}

// Get returns one transaction. Customers asking for someone else's
// transaction get not found.
func (s *BookingService) Get(ctx context.Context, caller Caller, id uint64) (*model.TransactionView, error) {
	if caller.AccountID == 0 {
		return nil, apperr.Unauthorized("authentication required")
	}
	var out *model.TransactionView
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load transaction")
	}
	if !caller.Role.IsStaff() && (out.CustomerID == nil || *out.CustomerID != caller.AccountID) {
		return nil, apperr.NotFound("transaction not found")
	}
	return out, nil
}
