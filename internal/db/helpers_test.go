package db

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMissingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	q := regexp.QuoteMeta("FROM information_schema.tables")
	mock.ExpectQuery(q).WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	mock.ExpectQuery(q).WithArgs("hotels").WillReturnError(sql.ErrNoRows)

	got := MissingTables(context.Background(), db, "users", "hotels")
	if len(got) != 1 || got[0] != "hotels" {
		t.Fatalf("missing = %v, want [hotels]", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaStopsOnFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS refresh_tokens")).WillReturnError(sql.ErrConnDone)

	err = EnsureSchema(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "refresh_tokens") {
		t.Fatalf("want error naming refresh_tokens, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTablesOrder(t *testing.T) {
	got := strings.Join(Tables(), ",")
	if got != "users,refresh_tokens,properties,hotels" {
		t.Fatalf("Tables() = %s", got)
	}
}
