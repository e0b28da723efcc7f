package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/veristamp/veristamp/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_ValidToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT token, user_id, expires_at FROM refresh_tokens WHERE token=\$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "expires_at"}).
			AddRow("tok", "u1", time.Now().Add(time.Hour)))

	got, err := repo.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("unexpected token row: %+v", got)
	}
}

func TestGet_ExpiredToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT token, user_id, expires_at FROM refresh_tokens WHERE token=\$1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "expires_at"}).
			AddRow("tok", "u1", time.Now().Add(-time.Minute)))

	_, err := repo.Get(context.Background(), "tok")
	if !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestGet_Missing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT token, user_id, expires_at FROM refresh_tokens`).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "absent")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("tok", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), "u1", "tok", time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_RotatesInOneTransaction(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token=\$1`).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("new", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Replace(context.Background(), "old", "u1", "new", time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_AlreadyConsumedTokenRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// another rotation won the race: the delete hits zero rows and no new
	// token may be minted
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token=\$1`).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), "old", "u1", "new", time.Hour)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_InsertFailureRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token=\$1`).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("new", "u1", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := repo.Replace(context.Background(), "old", "u1", "new", time.Hour); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
