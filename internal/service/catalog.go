package service

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/apperr"
	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type ItemInput struct {
	Name     string
	ImageURL string
	Price    int64
}

func (in ItemInput) validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "required"})
	}
	if in.Price < 0 {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "must be greater than or equal to 0"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid item", fields...)
	}
	return nil
}

type MovieInput struct {
	Title    string
	Duration int
}

// CatalogService manages concession items, movies and room types.
type CatalogService struct {
	store repository.Store
	clock clock.Clock
}

func NewCatalogService(store repository.Store, clk clock.Clock) *CatalogService {
	return &CatalogService{store: store, clock: clk}
}

func (s *CatalogService) CreateItem(ctx context.Context, caller Caller, in ItemInput) (*model.Item, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	it := &model.Item{
		Name:      strings.TrimSpace(in.Name),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Price:     in.Price,
		CreatedAt: s.clock.Now(),
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateItem(ctx, it)
	})
	if err != nil {
		return nil, translate(err, "failed to create item")
	}
	return it, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, caller Caller, id uint64, in ItemInput) (*model.Item, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Item
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		it, err := tx.GetItem(ctx, id)
		if err != nil {
			return err
		}
		it.Name = strings.TrimSpace(in.Name)
		it.ImageURL = strings.TrimSpace(in.ImageURL)
		it.Price = in.Price
		if err := tx.UpdateItem(ctx, it); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update item")
	}
	return out, nil
}

// DeleteItem removes an item from the catalog. Transactions that bought it
// keep their lines and unit prices.
func (s *CatalogService) DeleteItem(ctx context.Context, caller Caller, id uint64) error {
	if err := caller.require(model.StaffRoles...); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetItem(ctx, id); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, id)
	})
	return translate(err, "failed to delete item")
}

func (s *CatalogService) GetItem(ctx context.Context, id uint64) (*model.Item, error) {
	var out *model.Item
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.GetItem(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load item")
	}
	return out, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListItems(ctx)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list items")
	}
	return out, nil
}

func (s *CatalogService) CreateMovie(ctx context.Context, caller Caller, in MovieInput) (*model.Movie, error) {
	if err := caller.require(model.StaffRoles...); err != nil {
		return nil, err
	}
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Message: "required"})
	}
	if in.Duration <= 0 {
		fields = append(fields, apperr.FieldError{Field: "duration", Message: "must be greater than 0"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid movie", fields...)
	}

	m := &model.Movie{Title: strings.TrimSpace(in.Title), Duration: in.Duration, CreatedAt: s.clock.Now()}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateMovie(ctx, m)
	})
	if err != nil {
		return nil, translate(err, "failed to create movie")
	}
	return m, nil
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	var out *model.Movie
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.GetMovie(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to load movie")
	}
	return out, nil
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var out []model.Movie
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListMovies(ctx)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list movies")
	}
	return out, nil
}

// CreateRoomType is limited to managers and owners.
func (s *CatalogService) CreateRoomType(ctx context.Context, caller Caller, name string) (*model.RoomType, error) {
	if err := caller.require(model.ManagementRoles...); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required", apperr.FieldError{Field: "name", Message: "required"})
	}
	rt := &model.RoomType{Name: name}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateRoomType(ctx, rt)
	})
	if err != nil {
		return nil, translate(err, "failed to create room type")
	}
	return rt, nil
}

func (s *CatalogService) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	var out []model.RoomType
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.ListRoomTypes(ctx)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to list room types")
	}
	return out, nil
}
