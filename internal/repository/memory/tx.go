package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

// tx works on a private copy of the state. Units of work never run
// concurrently, so the lock methods only need to read.
type tx struct {
	st *state
}

var _ repository.Tx = (*tx)(nil)

var (
	errDuplicateSlot   = errors.New("memory: seat slot already exists")
	errDuplicateTicket = errors.New("memory: ticket already exists")
)

// Rooms

func (t *tx) CreateRoom(_ context.Context, r *model.Room) error {
	for _, other := range t.st.rooms {
		if other.Name == r.Name {
			return repository.ErrDuplicateRoomName
		}
	}
	r.ID = t.st.id()
	t.st.rooms[r.ID] = *r
	return nil
}

func (t *tx) GetRoom(_ context.Context, id uint64) (*model.Room, error) {
	r, ok := t.st.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &r, nil
}

func (t *tx) LockRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return t.GetRoom(ctx, id)
}

func (t *tx) ListRooms(_ context.Context, roomTypeID uint64) ([]model.Room, error) {
	out := []model.Room{}
	for _, r := range t.st.rooms {
		if r.Active() && (roomTypeID == 0 || r.RoomTypeID == roomTypeID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tx) RoomNameTaken(_ context.Context, name string, excludeID uint64) (bool, error) {
	for _, r := range t.st.rooms {
		if r.Name == name && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) UpdateRoom(_ context.Context, r *model.Room) error {
	for _, other := range t.st.rooms {
		if other.Name == r.Name && other.ID != r.ID {
			return repository.ErrDuplicateRoomName
		}
	}
	if _, ok := t.st.rooms[r.ID]; !ok {
		return repository.ErrRoomNotFound
	}
	t.st.rooms[r.ID] = *r
	return nil
}

// Seats

func (t *tx) CreateSeats(_ context.Context, seats []model.Seat) error {
	taken := map[[3]uint64]bool{}
	for _, s := range t.st.seats {
		taken[slotKey(s)] = true
	}
	for _, s := range seats {
		key := slotKey(s)
		if taken[key] {
			return errDuplicateSlot
		}
		taken[key] = true
		s.ID = t.st.id()
		t.st.seats[s.ID] = s
	}
	return nil
}

func slotKey(s model.Seat) [3]uint64 {
	return [3]uint64{s.RoomID, uint64(s.RowIndex), uint64(s.ColumnIndex)}
}

func (t *tx) SeatsByRoom(_ context.Context, roomID uint64) ([]model.Seat, error) {
	out := []model.Seat{}
	for _, s := range t.st.seats {
		if s.RoomID == roomID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowIndex != out[j].RowIndex {
			return out[i].RowIndex < out[j].RowIndex
		}
		return out[i].ColumnIndex < out[j].ColumnIndex
	})
	return out, nil
}

func (t *tx) DeleteSeats(_ context.Context, ids []uint64) error {
	for _, id := range ids {
		delete(t.st.seats, id)
	}
	return nil
}

func (t *tx) UpdateSeatClass(_ context.Context, id uint64, class seatgrid.Class) error {
	s, ok := t.st.seats[id]
	if !ok {
		return nil
	}
	s.Class = class
	t.st.seats[id] = s
	return nil
}

// Showtimes

func (t *tx) CreateShowtime(_ context.Context, s *model.Showtime) error {
	s.ID = t.st.id()
	t.st.showtimes[s.ID] = *s
	return nil
}

func (t *tx) GetShowtime(_ context.Context, id uint64) (*model.Showtime, error) {
	s, ok := t.st.showtimes[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	return &s, nil
}

func (t *tx) LockShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return t.GetShowtime(ctx, id)
}

func (t *tx) ShareLockShowtime(ctx context.Context, id uint64) error {
	_, err := t.GetShowtime(ctx, id)
	return err
}

func (t *tx) FindOverlapping(_ context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	out := []model.Showtime{}
	for _, s := range t.st.showtimes {
		if s.RoomID == roomID && s.ID != excludeID && s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	sortShowtimes(out)
	return out, nil
}

func (t *tx) HasShowtimeFrom(_ context.Context, roomID uint64, from time.Time) (bool, error) {
	for _, s := range t.st.showtimes {
		if s.RoomID == roomID && !s.StartTime.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) UpdateShowtime(_ context.Context, s *model.Showtime) error {
	if _, ok := t.st.showtimes[s.ID]; !ok {
		return repository.ErrShowtimeNotFound
	}
	t.st.showtimes[s.ID] = *s
	return nil
}

func (t *tx) DeleteShowtime(_ context.Context, id uint64) error {
	delete(t.st.showtimes, id)
	return nil
}

func (t *tx) ListShowtimes(_ context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	out := []model.Showtime{}
	for _, s := range t.st.showtimes {
		if !f.From.IsZero() && s.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.StartTime.Before(f.To) {
			continue
		}
		if f.RoomID != 0 && s.RoomID != f.RoomID {
			continue
		}
		if f.MovieID != 0 && s.MovieID != f.MovieID {
			continue
		}
		out = append(out, s)
	}
	sortShowtimes(out)
	return out, nil
}

func sortShowtimes(s []model.Showtime) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].StartTime.Equal(s[j].StartTime) {
			return s[i].StartTime.Before(s[j].StartTime)
		}
		return s[i].ID < s[j].ID
	})
}

// Tickets

func (t *tx) CreateTickets(_ context.Context, tickets []model.Ticket) error {
	taken := map[[2]uint64]bool{}
	for _, tk := range t.st.tickets {
		taken[[2]uint64{tk.ShowtimeID, tk.SeatID}] = true
	}
	for _, tk := range tickets {
		key := [2]uint64{tk.ShowtimeID, tk.SeatID}
		if taken[key] {
			return errDuplicateTicket
		}
		taken[key] = true
		tk.ID = t.st.id()
		t.st.tickets[tk.ID] = tk
	}
	return nil
}

func (t *tx) view(tk model.Ticket) (model.TicketView, bool) {
	seat, ok := t.st.seats[tk.SeatID]
	if !ok {
		return model.TicketView{}, false
	}
	return model.TicketView{
		Ticket:      tk,
		SeatName:    seat.Name,
		SeatClass:   seat.Class,
		RowIndex:    seat.RowIndex,
		ColumnIndex: seat.ColumnIndex,
	}, true
}

func (t *tx) TicketsByShowtime(_ context.Context, showtimeID uint64) ([]model.TicketView, error) {
	out := []model.TicketView{}
	for _, tk := range t.st.tickets {
		if tk.ShowtimeID != showtimeID {
			continue
		}
		if v, ok := t.view(tk); ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowIndex != out[j].RowIndex {
			return out[i].RowIndex < out[j].RowIndex
		}
		return out[i].ColumnIndex < out[j].ColumnIndex
	})
	return out, nil
}

func (t *tx) TicketsByIDs(_ context.Context, ids []uint64) ([]model.TicketView, error) {
	out := []model.TicketView{}
	seen := map[uint64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		tk, ok := t.st.tickets[id]
		if !ok {
			continue
		}
		if v, ok := t.view(tk); ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) CountBookedTickets(_ context.Context, showtimeID uint64) (int, error) {
	n := 0
	for _, tk := range t.st.tickets {
		if tk.ShowtimeID == showtimeID && tk.Booked {
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteTicketsByShowtime(_ context.Context, showtimeID uint64) error {
	for id, tk := range t.st.tickets {
		if tk.ShowtimeID == showtimeID && !tk.Booked {
			delete(t.st.tickets, id)
		}
	}
	return nil
}

func (t *tx) RepriceTickets(_ context.Context, showtimeID uint64, class seatgrid.Class, price int64) (int64, error) {
	var n int64
	for id, tk := range t.st.tickets {
		if tk.ShowtimeID != showtimeID || tk.Booked {
			continue
		}
		seat, ok := t.st.seats[tk.SeatID]
		if !ok || seat.Class != class {
			continue
		}
		if tk.Price != price {
			tk.Price = price
			t.st.tickets[id] = tk
			n++
		}
	}
	return n, nil
}

func (t *tx) MarkTicketBooked(_ context.Context, id uint64) (bool, error) {
	tk, ok := t.st.tickets[id]
	if !ok || tk.Booked {
		return false, nil
	}
	tk.Booked = true
	t.st.tickets[id] = tk
	return true, nil
}

// Transactions

func (t *tx) CreateTransaction(_ context.Context, tr *model.Transaction) error {
	for _, other := range t.st.transactions {
		for _, a := range other.TicketIDs {
			for _, b := range tr.TicketIDs {
				if a == b {
					return errDuplicateTicket
				}
			}
		}
	}
	tr.ID = t.st.id()
	t.st.transactions[tr.ID] = cloneTransaction(*tr)
	return nil
}

func (t *tx) enrich(tr model.Transaction) (model.TransactionView, bool) {
	if len(tr.TicketIDs) == 0 {
		return model.TransactionView{}, false
	}
	tk, ok := t.st.tickets[tr.TicketIDs[0]]
	if !ok {
		return model.TransactionView{}, false
	}
	st, ok := t.st.showtimes[tk.ShowtimeID]
	if !ok {
		return model.TransactionView{}, false
	}
	mv, ok := t.st.movies[st.MovieID]
	if !ok {
		return model.TransactionView{}, false
	}
	return model.TransactionView{
		Transaction:   cloneTransaction(tr),
		ShowtimeID:    st.ID,
		ShowtimeStart: st.StartTime,
		MovieID:       mv.ID,
		MovieTitle:    mv.Title,
	}, true
}

func (t *tx) GetTransaction(_ context.Context, id uint64) (*model.TransactionView, error) {
	tr, ok := t.st.transactions[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	v, ok := t.enrich(tr)
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return &v, nil
}

func (t *tx) ListTransactions(_ context.Context, f model.TransactionFilter) ([]model.TransactionView, error) {
	out := []model.TransactionView{}
	for _, tr := range t.st.transactions {
		if f.CustomerID != nil && (tr.CustomerID == nil || *tr.CustomerID != *f.CustomerID) {
			continue
		}
		if v, ok := t.enrich(tr); ok {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Catalog

func (t *tx) CreateItem(_ context.Context, it *model.Item) error {
	it.ID = t.st.id()
	t.st.items[it.ID] = *it
	return nil
}

func (t *tx) GetItem(_ context.Context, id uint64) (*model.Item, error) {
	it, ok := t.st.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &it, nil
}

func (t *tx) ItemsByIDs(_ context.Context, ids []uint64) ([]model.Item, error) {
	out := []model.Item{}
	for _, id := range ids {
		if it, ok := t.st.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (t *tx) ListItems(_ context.Context) ([]model.Item, error) {
	out := []model.Item{}
	for _, it := range t.st.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) UpdateItem(_ context.Context, it *model.Item) error {
	if _, ok := t.st.items[it.ID]; !ok {
		return repository.ErrItemNotFound
	}
	t.st.items[it.ID] = *it
	return nil
}

func (t *tx) DeleteItem(_ context.Context, id uint64) error {
	delete(t.st.items, id)
	return nil
}

func (t *tx) CreateMovie(_ context.Context, m *model.Movie) error {
	m.ID = t.st.id()
	t.st.movies[m.ID] = *m
	return nil
}

func (t *tx) GetMovie(_ context.Context, id uint64) (*model.Movie, error) {
	m, ok := t.st.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &m, nil
}

func (t *tx) ListMovies(_ context.Context) ([]model.Movie, error) {
	out := []model.Movie{}
	for _, m := range t.st.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) CreateRoomType(_ context.Context, rt *model.RoomType) error {
	for _, other := range t.st.roomTypes {
		if other.Name == rt.Name {
			return repository.ErrDuplicateRoomType
		}
	}
	rt.ID = t.st.id()
	t.st.roomTypes[rt.ID] = *rt
	return nil
}

func (t *tx) GetRoomType(_ context.Context, id uint64) (*model.RoomType, error) {
	rt, ok := t.st.roomTypes[id]
	if !ok {
		return nil, repository.ErrRoomTypeNotFound
	}
	return &rt, nil
}

func (t *tx) ListRoomTypes(_ context.Context) ([]model.RoomType, error) {
	out := []model.RoomType{}
	for _, rt := range t.st.roomTypes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Users and tokens

func (t *tx) CreateUser(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range t.st.users {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = t.st.id()
	t.st.users[u.ID] = *u
	return nil
}

func (t *tx) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range t.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (t *tx) GetUserByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (t *tx) ListActiveUsers(_ context.Context, roles ...model.Role) ([]model.User, error) {
	out := []model.User{}
	for _, u := range t.st.users {
		if u.IsActive && slices.Contains(roles, u.Role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) UpdateUser(_ context.Context, u *model.User) error {
	if _, ok := t.st.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, other := range t.st.users {
		if other.Email == u.Email && other.ID != u.ID {
			return repository.ErrEmailExists
		}
	}
	t.st.users[u.ID] = *u
	return nil
}

func (t *tx) StoreRefreshToken(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	t.st.tokens[tokenHash] = model.RefreshToken{
		ID:        t.st.id(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
	}
	return nil
}

func (t *tx) ValidateRefreshToken(_ context.Context, tokenHash string, now time.Time) (uint64, error) {
	tok, ok := t.st.tokens[tokenHash]
	if !ok || tok.RevokedAt != nil || now.After(tok.ExpiresAt) {
		return 0, repository.ErrInvalidToken
	}
	return tok.UserID, nil
}

func (t *tx) RevokeRefreshToken(_ context.Context, tokenHash string, now time.Time) error {
	tok, ok := t.st.tokens[tokenHash]
	if !ok || tok.RevokedAt != nil {
		return nil
	}
	tok.RevokedAt = &now
	t.st.tokens[tokenHash] = tok
	return nil
}

func (t *tx) RevokeUserTokens(_ context.Context, userID uint64, now time.Time) error {
	for hash, tok := range t.st.tokens {
		if tok.UserID == userID && tok.RevokedAt == nil {
			revoked := now
			tok.RevokedAt = &revoked
			t.st.tokens[hash] = tok
		}
	}
	return nil
}

// Reports

func (t *tx) RevenueBetween(_ context.Context, from, to time.Time) (int64, error) {
	var total int64
	for _, tr := range t.st.transactions {
		if !tr.CreatedAt.Before(from) && tr.CreatedAt.Before(to) {
			total += tr.TotalPrice
		}
	}
	return total, nil
}

func (t *tx) TicketStatsBetween(_ context.Context, from, to time.Time) (model.TicketStats, error) {
	var st model.TicketStats
	for _, tk := range t.st.tickets {
		sh, ok := t.st.showtimes[tk.ShowtimeID]
		if !ok || sh.StartTime.Before(from) || !sh.StartTime.Before(to) {
			continue
		}
		st.Total++
		if tk.Booked {
			st.Sold++
		}
	}
	return st, nil
}
