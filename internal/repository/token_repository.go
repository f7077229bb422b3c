package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// TokenRepo persists and validates refresh tokens (single token_hash column).
type TokenRepo struct {
	q sqlx.ExtContext
}

func NewTokenRepo(q sqlx.ExtContext) *TokenRepo { return &TokenRepo{q: q} }

// StoreRefreshToken inserts a refresh token hash row.
func (r *TokenRepo) StoreRefreshToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefreshToken returns the user id if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefreshToken(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var row struct {
		UserID    uint64       `db:"user_id"`
		ExpiresAt time.Time    `db:"expires_at"`
		RevokedAt sql.NullTime `db:"revoked_at"`
	}
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`, tokenHash)
	if err != nil {
		return 0, notFound(err, ErrInvalidToken)
	}
	if row.RevokedAt.Valid || now.After(row.ExpiresAt) {
		return 0, ErrInvalidToken
	}
	return row.UserID, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenHash string, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		now.UTC(), tokenHash)
	return err
}

// RevokeUserTokens revokes all of the user's active tokens.
func (r *TokenRepo) RevokeUserTokens(ctx context.Context, userID uint64, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		now.UTC(), userID)
	return err
}
