package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "estatehub/internal/config"
	"estatehub/internal/domain"

	"github.com/go-sql-driver/mysql"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const userColumns = `id, name, email, password_hash, role, status, created_at`

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

// FindByEmail looks up a user by normalized email.
func (r UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	db := r.db()
	if db == nil {
		return domain.User{}, domain.InternalError{Msg: "database not connected"}
	}
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r UserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	db := r.db()
	if db == nil {
		return domain.User{}, domain.InternalError{Msg: "database not connected"}
	}
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

// Create inserts u and returns it with ID and CreatedAt filled in.
// A duplicate email becomes a ConflictError.
func (r UserRepository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	db := r.db()
	if db == nil {
		return domain.User{}, domain.InternalError{Msg: "database not connected"}
	}
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return domain.User{}, domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user id: %w", err)
	}
	u.ID = id
	return u, nil
}
