package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// schema lists the backend tables in dependency order.
var schema = []struct {
	table string
	ddl   string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			email VARCHAR(191) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'customer',
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"refresh_tokens", `
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			token CHAR(36) PRIMARY KEY,
			user_id BIGINT NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_refresh_tokens_user (user_id),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"properties", `
		CREATE TABLE IF NOT EXISTS properties (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			price DECIMAL(14,2) NOT NULL,
			price_kind VARCHAR(16) NULL,
			category VARCHAR(64) NULL,
			location VARCHAR(200) NULL,
			bedrooms INT NULL,
			bathrooms INT NULL,
			area DECIMAL(10,2) NULL,
			featured TINYINT(1) NOT NULL DEFAULT 0,
			published TINYINT(1) NOT NULL DEFAULT 1,
			description TEXT NULL,
			image_url VARCHAR(500) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"hotels", `
		CREATE TABLE IF NOT EXISTS hotels (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			price_per_night DECIMAL(10,2) NOT NULL,
			category VARCHAR(64) NULL,
			location VARCHAR(200) NULL,
			rating DECIMAL(2,1) NULL,
			review_count INT NULL,
			amenities VARCHAR(500) NULL,
			featured TINYINT(1) NOT NULL DEFAULT 0,
			published TINYINT(1) NOT NULL DEFAULT 1,
			description TEXT NULL,
			image_url VARCHAR(500) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Tables returns the backend table names in creation order.
func Tables() []string {
	out := make([]string, len(schema))
	for i, s := range schema {
		out[i] = s.table
	}
	return out
}

// EnsureSchema creates any missing backend table.
func EnsureSchema(ctx context.Context, e Execer) error {
	for _, s := range schema {
		if _, err := e.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("create %s: %w", s.table, err)
		}
	}
	return nil
}
