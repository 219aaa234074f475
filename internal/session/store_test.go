package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	backends := map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "nested", "session.json")),
	}

	for name, storage := range backends {
		t.Run(name, func(t *testing.T) {
			store := &Store{Storage: storage, Namespace: "test"}

			if _, ok, err := store.Load(ctx); err != nil || ok {
				t.Fatalf("empty load: ok=%v err=%v", ok, err)
			}

			in := Session{AccessToken: "a1", RefreshToken: "r1", User: &Profile{ID: 3, Email: "x@y.z", Role: "admin"}}
			if err := store.Save(ctx, in); err != nil {
				t.Fatalf("save: %v", err)
			}

			out, ok, err := store.Load(ctx)
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if out.AccessToken != "a1" || out.RefreshToken != "r1" || out.User == nil || *out.User != *in.User {
				t.Fatalf("loaded %+v", out)
			}

			vals, err := storage.GetMany(ctx, []string{"test:access_token", "test:refresh_token", "test:user"})
			if err != nil || len(vals) != 3 {
				t.Fatalf("namespaced keys missing: %v %v", vals, err)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, ok, _ := store.Load(ctx); ok {
				t.Fatalf("session survived clear")
			}
		})
	}
}

func TestStoreNamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	a := &Store{Storage: storage, Namespace: "a"}
	b := &Store{Storage: storage, Namespace: "b"}

	if err := a.Save(ctx, Session{AccessToken: "x", RefreshToken: "y"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := b.Load(ctx); ok {
		t.Fatalf("namespace b sees namespace a's session")
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := a.Load(ctx); !ok {
		t.Fatalf("clearing b removed a's session")
	}
}

func TestSQLStorageSetManyUsesOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_store").WithArgs("ns:access_token", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session_store").WithArgs("ns:refresh_token", "r").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session_store").WithArgs("ns:user", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := &Store{Storage: NewSQLStorage(db), Namespace: "ns"}
	if err := store.Save(context.Background(), Session{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStorageRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_store").WithArgs("ns:access_token", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO session_store").WithArgs("ns:refresh_token", "r").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	store := &Store{Storage: NewSQLStorage(db), Namespace: "ns"}
	if err := store.Save(context.Background(), Session{AccessToken: "a", RefreshToken: "r"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStorageLoadAndClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT k, v FROM session_store WHERE k IN").
		WithArgs("ns:access_token", "ns:refresh_token", "ns:user").
		WillReturnRows(sqlmock.NewRows([]string{"k", "v"}).
			AddRow("ns:access_token", "a").
			AddRow("ns:refresh_token", "r").
			AddRow("ns:user", `{"id":9,"name":"Bo","email":"bo@example.com","role":"hotel_manager"}`))
	mock.ExpectExec("DELETE FROM session_store WHERE k IN").
		WithArgs("ns:access_token", "ns:refresh_token", "ns:user").
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := &Store{Storage: NewSQLStorage(db), Namespace: "ns"}
	sess, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if sess.User == nil || sess.User.Role != "hotel_manager" {
		t.Fatalf("user = %+v", sess.User)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFileStorageSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "missing", "dir", "session.json")
	store := NewStore(NewFileStorage(path))

	in := Session{AccessToken: "a1", RefreshToken: "r1", User: &Profile{ID: 9, Name: "Ana", Role: "agent"}}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".session-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}

	// a fresh FileStorage on the same path sees the saved session
	out, ok, err := NewStore(NewFileStorage(path)).Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if out.RefreshToken != "r1" || out.User == nil || out.User.Name != "Ana" {
		t.Fatalf("loaded %+v", out)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := store.Load(ctx); ok || err != nil {
		t.Fatalf("after clear: ok=%v err=%v", ok, err)
	}
}
