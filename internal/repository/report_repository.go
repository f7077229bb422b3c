package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ReportRepo runs the dashboard aggregates.
type ReportRepo struct {
	q sqlx.ExtContext
}

func NewReportRepo(q sqlx.ExtContext) *ReportRepo { return &ReportRepo{q: q} }

func (r *ReportRepo) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := sqlx.GetContext(ctx, r.q, &total,
		`SELECT COALESCE(SUM(total_price), 0) FROM transactions WHERE created_at >= ? AND created_at < ?`,
		from.UTC(), to.UTC())
	return total, err
}

func (r *ReportRepo) TicketStatsBetween(ctx context.Context, from, to time.Time) (model.TicketStats, error) {
	var st model.TicketStats
	err := sqlx.GetContext(ctx, r.q, &st,
		`SELECT COALESCE(SUM(t.is_booked), 0) AS sold, COUNT(t.id) AS total
		 FROM tickets t JOIN showtimes s ON s.id = t.showtime_id
		 WHERE s.start_time >= ? AND s.start_time < ?`,
		from.UTC(), to.UTC())
	return st, err
}
