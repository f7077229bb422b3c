package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// CatalogRepo provides access to items, movies and room types.
type CatalogRepo struct {
	q sqlx.ExtContext
}

func NewCatalogRepo(q sqlx.ExtContext) *CatalogRepo { return &CatalogRepo{q: q} }

func (r *CatalogRepo) CreateItem(ctx context.Context, it *model.Item) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO items (name, image_url, price, created_at) VALUES (?, ?, ?, ?)`,
		it.Name, it.ImageURL, it.Price, it.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) GetItem(ctx context.Context, id uint64) (*model.Item, error) {
	var it model.Item
	err := sqlx.GetContext(ctx, r.q, &it, `SELECT id, name, image_url, price, created_at FROM items WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return &it, nil
}

// ItemsByIDs returns the items that exist among ids.
func (r *CatalogRepo) ItemsByIDs(ctx context.Context, ids []uint64) ([]model.Item, error) {
	out := []model.Item{}
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, image_url, price, created_at FROM items WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(query), args...)
	return out, err
}

func (r *CatalogRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	out := []model.Item{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id, name, image_url, price, created_at FROM items ORDER BY name, id`)
	return out, err
}

func (r *CatalogRepo) UpdateItem(ctx context.Context, it *model.Item) error {
	_, err := r.q.ExecContext(ctx, `UPDATE items SET name = ?, image_url = ?, price = ? WHERE id = ?`,
		it.Name, it.ImageURL, it.Price, it.ID)
	return err
}

func (r *CatalogRepo) DeleteItem(ctx context.Context, id uint64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	return err
}

func (r *CatalogRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO movies (title, duration_min, created_at) VALUES (?, ?, ?)`,
		m.Title, m.Duration, m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := sqlx.GetContext(ctx, r.q, &m, `SELECT id, title, duration_min, created_at FROM movies WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, ErrMovieNotFound)
	}
	return &m, nil
}

func (r *CatalogRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	out := []model.Movie{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id, title, duration_min, created_at FROM movies ORDER BY title, id`)
	return out, err
}

func (r *CatalogRepo) CreateRoomType(ctx context.Context, rt *model.RoomType) error {
	res, err := r.q.ExecContext(ctx, `INSERT INTO room_types (name) VALUES (?)`, rt.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateRoomType
		}
		return fmt.Errorf("insert room type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	var rt model.RoomType
	if err := sqlx.GetContext(ctx, r.q, &rt, `SELECT id, name FROM room_types WHERE id = ?`, id); err != nil {
		return nil, notFound(err, ErrRoomTypeNotFound)
	}
	return &rt, nil
}

func (r *CatalogRepo) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	out := []model.RoomType{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT id, name FROM room_types ORDER BY name`)
	return out, err
}
