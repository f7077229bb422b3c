package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const userColumns = `id, email, name, password_hash, role, is_active, created_at, updated_at`

// UserRepo provides access to the users table.
type UserRepo struct {
	q sqlx.ExtContext
}

func NewUserRepo(q sqlx.ExtContext) *UserRepo { return &UserRepo{q: q} }

// CreateUser inserts a user with an already hashed password and sets its ID.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *UserRepo) ListActiveUsers(ctx context.Context, roles ...model.Role) ([]model.User, error) {
	out := []model.User{}
	if len(roles) == 0 {
		return out, nil
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users
		WHERE is_active = 1 AND role IN (?) ORDER BY name, id`, names)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(query), args...)
	return out, err
}

func (r *UserRepo) UpdateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, password_hash = ?, role = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.IsActive, u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetUserByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}
