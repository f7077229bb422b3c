package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Writing units run at READ COMMITTED, so a read issued after taking a row
// lock sees what the previous holder of that lock committed.
var (
	writeTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	readTxOptions  = &sql.TxOptions{ReadOnly: true}
)

// MySQLStore runs units of work as InnoDB transactions.
type MySQLStore struct {
	db *sqlx.DB
}

func NewMySQLStore(db *sqlx.DB) *MySQLStore { return &MySQLStore{db: db} }

func (s *MySQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, writeTxOptions, fn)
}

func (s *MySQLStore) View(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, readTxOptions, fn)
}

func (s *MySQLStore) run(ctx context.Context, opts *sql.TxOptions, fn func(Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(newSQLTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// sqlTx exposes every repository bound to one *sqlx.Tx.
type sqlTx struct {
	*RoomRepo
	*SeatRepo
	*ShowtimeRepo
	*TicketRepo
	*TransactionRepo
	*CatalogRepo
	*UserRepo
	*TokenRepo
	*ReportRepo
}

var _ Tx = (*sqlTx)(nil)

func newSQLTx(q sqlx.ExtContext) *sqlTx {
	return &sqlTx{
		RoomRepo:        NewRoomRepo(q),
		SeatRepo:        NewSeatRepo(q),
		ShowtimeRepo:    NewShowtimeRepo(q),
		TicketRepo:      NewTicketRepo(q),
		TransactionRepo: NewTransactionRepo(q),
		CatalogRepo:     NewCatalogRepo(q),
		UserRepo:        NewUserRepo(q),
		TokenRepo:       NewTokenRepo(q),
		ReportRepo:      NewReportRepo(q),
	}
}

// insertChunk is the row count of one multi-row INSERT.
const insertChunk = 500

// bulkInsert runs prefix + "(?,...),(?,...)" in chunks of insertChunk rows.
func bulkInsert(ctx context.Context, q sqlx.ExecerContext, prefix, placeholders string, rows int, args func(i int) []any) error {
	for start := 0; start < rows; start += insertChunk {
		end := start + insertChunk
		if end > rows {
			end = rows
		}
		query := prefix
		vals := make([]any, 0, (end-start)*4)
		for i := start; i < end; i++ {
			if i > start {
				query += ","
			}
			query += placeholders
			vals = append(vals, args(i)...)
		}
		if _, err := q.ExecContext(ctx, query, vals...); err != nil {
			return err
		}
	}
	return nil
}
