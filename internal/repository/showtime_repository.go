package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const showtimeColumns = `id, movie_id, room_id, start_time, end_time, duration_min,
	single_price, double_price, grid_rows, grid_cols, created_at, updated_at`

// ShowtimeRepo provides access to the showtimes table.
type ShowtimeRepo struct {
	q sqlx.ExtContext
}

func NewShowtimeRepo(q sqlx.ExtContext) *ShowtimeRepo { return &ShowtimeRepo{q: q} }

// CreateShowtime inserts a showtime and sets its ID.
func (r *ShowtimeRepo) CreateShowtime(ctx context.Context, s *model.Showtime) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO showtimes (movie_id, room_id, start_time, end_time, duration_min,
		   single_price, double_price, grid_rows, grid_cols, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.MovieID, s.RoomID, s.StartTime.UTC(), s.EndTime.UTC(), s.Duration,
		s.SinglePrice, s.DoublePrice, s.GridRows, s.GridCols, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert showtime: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *ShowtimeRepo) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return r.get(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ?`, id)
}

func (r *ShowtimeRepo) LockShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return r.get(ctx, `SELECT `+showtimeColumns+` FROM showtimes WHERE id = ? FOR UPDATE`, id)
}

func (r *ShowtimeRepo) get(ctx context.Context, query string, id uint64) (*model.Showtime, error) {
	var s model.Showtime
	if err := sqlx.GetContext(ctx, r.q, &s, query, id); err != nil {
		return nil, notFound(err, ErrShowtimeNotFound)
	}
	return &s, nil
}

func (r *ShowtimeRepo) ShareLockShowtime(ctx context.Context, id uint64) error {
	var got uint64
	err := sqlx.GetContext(ctx, r.q, &got, `SELECT id FROM showtimes WHERE id = ? LOCK IN SHARE MODE`, id)
	return notFound(err, ErrShowtimeNotFound)
}

// FindOverlapping uses the open-interval test start < end' AND end > start',
// so back-to-back showtimes do not conflict.
func (r *ShowtimeRepo) FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Showtime, error) {
	out := []model.Showtime{}
	err := sqlx.SelectContext(ctx, r.q, &out,
		`SELECT `+showtimeColumns+` FROM showtimes
		 WHERE room_id = ? AND id <> ? AND start_time < ? AND end_time > ?
		 ORDER BY start_time`,
		roomID, excludeID, end.UTC(), start.UTC())
	return out, err
}

func (r *ShowtimeRepo) HasShowtimeFrom(ctx context.Context, roomID uint64, from time.Time) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.q, &exists,
		`SELECT EXISTS(SELECT 1 FROM showtimes WHERE room_id = ? AND start_time >= ?)`, roomID, from.UTC())
	return exists, err
}

func (r *ShowtimeRepo) UpdateShowtime(ctx context.Context, s *model.Showtime) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE showtimes SET movie_id = ?, room_id = ?, start_time = ?, end_time = ?, duration_min = ?,
		   single_price = ?, double_price = ?, grid_rows = ?, grid_cols = ?, updated_at = ?
		 WHERE id = ?`,
		s.MovieID, s.RoomID, s.StartTime.UTC(), s.EndTime.UTC(), s.Duration,
		s.SinglePrice, s.DoublePrice, s.GridRows, s.GridCols, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return fmt.Errorf("update showtime: %w", err)
	}
	return nil
}

func (r *ShowtimeRepo) DeleteShowtime(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete showtime: %w", err)
	}
	return nil
}

// ListShowtimes returns showtimes matching f ordered by start time.
func (r *ShowtimeRepo) ListShowtimes(ctx context.Context, f model.ShowtimeFilter) ([]model.Showtime, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "start_time >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "start_time < ?")
		args = append(args, f.To.UTC())
	}
	if f.RoomID != 0 {
		conds = append(conds, "room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.MovieID != 0 {
		conds = append(conds, "movie_id = ?")
		args = append(args, f.MovieID)
	}
	query := `SELECT ` + showtimeColumns + ` FROM showtimes`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_time, id`

	out := []model.Showtime{}
	err := sqlx.SelectContext(ctx, r.q, &out, query, args...)
	return out, err
}
