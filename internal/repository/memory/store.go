// Package memory is an in-process repository.Store. Units of work run one at
// a time against a private copy of the data that replaces the shared copy
// only when the unit of work succeeds, which makes every unit of work
// serializable and all-or-nothing. It backs STORE_DRIVER=memory and the
// service tests.
package memory

import (
	"context"
	"sync"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type state struct {
	nextID       uint64
	rooms        map[uint64]model.Room
	seats        map[uint64]model.Seat
	showtimes    map[uint64]model.Showtime
	tickets      map[uint64]model.Ticket
	transactions map[uint64]model.Transaction
	items        map[uint64]model.Item
	movies       map[uint64]model.Movie
	roomTypes    map[uint64]model.RoomType
	users        map[uint64]model.User
	tokens       map[string]model.RefreshToken
}

func newState() *state {
	return &state{
		rooms:        map[uint64]model.Room{},
		seats:        map[uint64]model.Seat{},
		showtimes:    map[uint64]model.Showtime{},
		tickets:      map[uint64]model.Ticket{},
		transactions: map[uint64]model.Transaction{},
		items:        map[uint64]model.Item{},
		movies:       map[uint64]model.Movie{},
		roomTypes:    map[uint64]model.RoomType{},
		users:        map[uint64]model.User{},
		tokens:       map[string]model.RefreshToken{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		nextID:       s.nextID,
		rooms:        copyMap(s.rooms),
		seats:        copyMap(s.seats),
		showtimes:    copyMap(s.showtimes),
		tickets:      copyMap(s.tickets),
		transactions: make(map[uint64]model.Transaction, len(s.transactions)),
		items:        copyMap(s.items),
		movies:       copyMap(s.movies),
		roomTypes:    copyMap(s.roomTypes),
		users:        copyMap(s.users),
		tokens:       copyMap(s.tokens),
	}
	for id, t := range s.transactions {
		c.transactions[id] = cloneTransaction(t)
	}
	return c
}

func cloneTransaction(t model.Transaction) model.Transaction {
	t.TicketIDs = append([]uint64(nil), t.TicketIDs...)
	t.Items = append([]model.TransactionItem(nil), t.Items...)
	return t
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

// Store is a repository.Store kept in memory.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ repository.Store = (*Store)(nil)

func New() *Store { return &Store{st: newState()} }

func (s *Store) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// View runs fn against a snapshot. Writes made by fn are discarded.
func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snap := s.st.clone()
	s.mu.RUnlock()
	return fn(&tx{st: snap})
}
