package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// transactionViewSelect enriches each transaction through its first ticket;
// every ticket of a transaction belongs to the same showtime.
const transactionViewSelect = `SELECT tr.id, tr.customer_id, tr.staff_id, tr.total_price, tr.created_at,
	st.id AS showtime_id, st.start_time AS showtime_start, m.id AS movie_id, m.title AS movie_title
	FROM transactions tr
	JOIN transaction_tickets tt ON tt.transaction_id = tr.id AND tt.position = 0
	JOIN tickets tk ON tk.id = tt.ticket_id
	JOIN showtimes st ON st.id = tk.showtime_id
	JOIN movies m ON m.id = st.movie_id`

// TransactionRepo provides access to transactions and their lines.
type TransactionRepo struct {
	q sqlx.ExtContext
}

func NewTransactionRepo(q sqlx.ExtContext) *TransactionRepo { return &TransactionRepo{q: q} }

// CreateTransaction inserts the transaction with its ticket and item lines
// and sets its ID. Line order is preserved through the position column.
func (r *TransactionRepo) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO transactions (customer_id, staff_id, total_price, created_at) VALUES (?, ?, ?, ?)`,
		t.CustomerID, t.StaffID, t.TotalPrice, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	if len(t.TicketIDs) > 0 {
		err = bulkInsert(ctx, r.q,
			`INSERT INTO transaction_tickets (transaction_id, ticket_id, position) VALUES `, `(?, ?, ?)`,
			len(t.TicketIDs), func(i int) []any { return []any{t.ID, t.TicketIDs[i], i} })
		if err != nil {
			return fmt.Errorf("insert transaction tickets: %w", err)
		}
	}
	if len(t.Items) > 0 {
		err = bulkInsert(ctx, r.q,
			`INSERT INTO transaction_items (transaction_id, position, item_id, quantity, unit_price) VALUES `, `(?, ?, ?, ?, ?)`,
			len(t.Items), func(i int) []any {
				it := t.Items[i]
				return []any{t.ID, i, it.ItemID, it.Quantity, it.UnitPrice}
			})
		if err != nil {
			return fmt.Errorf("insert transaction items: %w", err)
		}
	}
	return nil
}

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uint64) (*model.TransactionView, error) {
	var v model.TransactionView
	if err := sqlx.GetContext(ctx, r.q, &v, transactionViewSelect+` WHERE tr.id = ?`, id); err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	views := []model.TransactionView{v}
	if err := r.loadLines(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListTransactions returns transactions newest first.
func (r *TransactionRepo) ListTransactions(ctx context.Context, f model.TransactionFilter) ([]model.TransactionView, error) {
	query := transactionViewSelect
	var args []any
	if f.CustomerID != nil {
		query += ` WHERE tr.customer_id = ?`
		args = append(args, *f.CustomerID)
	}
	query += ` ORDER BY tr.created_at DESC, tr.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	out := []model.TransactionView{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadLines fills TicketIDs and Items of the given views in place.
func (r *TransactionRepo) loadLines(ctx context.Context, views []model.TransactionView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint64, len(views))
	index := make(map[uint64]int, len(views))
	for i := range views {
		ids[i] = views[i].ID
		index[views[i].ID] = i
		views[i].TicketIDs = []uint64{}
		views[i].Items = []model.TransactionItem{}
	}

	var tickets []struct {
		TransactionID uint64 `db:"transaction_id"`
		TicketID      uint64 `db:"ticket_id"`
	}
	query, args, err := sqlx.In(
		`SELECT transaction_id, ticket_id FROM transaction_tickets
		 WHERE transaction_id IN (?) ORDER BY transaction_id, position`, ids)
	if err != nil {
		return err
	}
	if err := sqlx.SelectContext(ctx, r.q, &tickets, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load transaction tickets: %w", err)
	}
	for _, t := range tickets {
		v := &views[index[t.TransactionID]]
		v.TicketIDs = append(v.TicketIDs, t.TicketID)
	}

	var items []struct {
		TransactionID uint64 `db:"transaction_id"`
		model.TransactionItem
	}
	query, args, err = sqlx.In(
		`SELECT transaction_id, item_id, quantity, unit_price FROM transaction_items
		 WHERE transaction_id IN (?) ORDER BY transaction_id, position`, ids)
	if err != nil {
		return err
	}
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load transaction items: %w", err)
	}
	for _, it := range items {
		v := &views[index[it.TransactionID]]
		v.Items = append(v.Items, it.TransactionItem)
	}
	return nil
}
