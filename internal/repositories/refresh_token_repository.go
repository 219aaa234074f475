package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"
)

// RefreshTokenRepository persists opaque refresh tokens. Each token is
// single use: Consume revokes it in the same transaction that validates it.
type RefreshTokenRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r RefreshTokenRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r RefreshTokenRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r RefreshTokenRepository) Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt, r.now())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// Consume validates and revokes token, returning its owner.
func (r RefreshTokenRepository) Consume(ctx context.Context, token string) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not connected"}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		userID    int64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token = ? LIMIT 1 FOR UPDATE`,
		token).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.UnauthorizedError{Msg: "invalid refresh token", Err: err}
	}
	if err != nil {
		return 0, fmt.Errorf("select refresh token: %w", err)
	}
	if revokedAt.Valid {
		return 0, domain.UnauthorizedError{Msg: "refresh token revoked"}
	}
	now := r.now()
	if !now.Before(expiresAt) {
		return 0, domain.UnauthorizedError{Msg: "refresh token expired"}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token = ?`, now, token); err != nil {
		return 0, fmt.Errorf("revoke refresh token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return userID, nil
}

// Revoke marks token revoked. Unknown or already revoked tokens are not an error.
func (r RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	_, err := db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		r.now(), token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
