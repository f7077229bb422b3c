package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/seatgrid"
)

const ticketViewSelect = `SELECT t.id, t.showtime_id, t.seat_id, t.price, t.is_booked,
	s.name AS seat_name, s.class AS seat_class, s.row_index, s.column_index
	FROM tickets t JOIN seats s ON s.id = t.seat_id`

// TicketRepo provides access to the tickets table.
type TicketRepo struct {
	q sqlx.ExtContext
}

func NewTicketRepo(q sqlx.ExtContext) *TicketRepo { return &TicketRepo{q: q} }

// CreateTickets inserts tickets in multi-row statements.
func (r *TicketRepo) CreateTickets(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	err := bulkInsert(ctx, r.q,
		`INSERT INTO tickets (showtime_id, seat_id, price, is_booked) VALUES `, `(?, ?, ?, ?)`,
		len(tickets), func(i int) []any {
			t := tickets[i]
			return []any{t.ShowtimeID, t.SeatID, t.Price, t.Booked}
		})
	if err != nil {
		return fmt.Errorf("insert tickets: %w", err)
	}
	return nil
}

func (r *TicketRepo) TicketsByShowtime(ctx context.Context, showtimeID uint64) ([]model.TicketView, error) {
	out := []model.TicketView{}
	err := sqlx.SelectContext(ctx, r.q, &out,
		ticketViewSelect+` WHERE t.showtime_id = ? ORDER BY s.row_index, s.column_index`, showtimeID)
	return out, err
}

// TicketsByIDs returns the tickets that still exist, in ID order.
func (r *TicketRepo) TicketsByIDs(ctx context.Context, ids []uint64) ([]model.TicketView, error) {
	out := []model.TicketView{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(ticketViewSelect+` WHERE t.id IN (?) ORDER BY t.id`, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(query), args...)
	return out, err
}

func (r *TicketRepo) CountBookedTickets(ctx context.Context, showtimeID uint64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		`SELECT COUNT(*) FROM tickets WHERE showtime_id = ? AND is_booked = 1`, showtimeID)
	return n, err
}

// DeleteTicketsByShowtime removes the showtime's unbooked tickets.
func (r *TicketRepo) DeleteTicketsByShowtime(ctx context.Context, showtimeID uint64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM tickets WHERE showtime_id = ? AND is_booked = 0`, showtimeID)
	if err != nil {
		return fmt.Errorf("delete tickets: %w", err)
	}
	return nil
}

func (r *TicketRepo) RepriceTickets(ctx context.Context, showtimeID uint64, class seatgrid.Class, price int64) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tickets t JOIN seats s ON s.id = t.seat_id
		 SET t.price = ?
		 WHERE t.showtime_id = ? AND s.class = ? AND t.is_booked = 0`,
		price, showtimeID, class)
	if err != nil {
		return 0, fmt.Errorf("reprice tickets: %w", err)
	}
	return res.RowsAffected()
}

// MarkTicketBooked is a compare-and-swap on is_booked. InnoDB's row lock
// makes concurrent callers for the same ticket queue up; only the first one
// sees is_booked = 0 and changes the row.
func (r *TicketRepo) MarkTicketBooked(ctx context.Context, id uint64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE tickets SET is_booked = 1 WHERE id = ? AND is_booked = 0`, id)
	if err != nil {
		return false, fmt.Errorf("book ticket %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
