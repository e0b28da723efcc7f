package attestations

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/veristamp/veristamp/internal/attest"
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

const digest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func recordColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "attestation_id", "user_id", "file_name", "file_type",
		"file_size", "file_hash", "storage_key", "created_at",
	})
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(`INSERT INTO attestations .* RETURNING id, created_at`).
		WithArgs("ATT-1712345678901-0A1B2C3D", "u1", "doc.pdf", "application/pdf", int64(42), digest, "content/2024/4/1/key").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("row-1", created))

	rec, err := repo.Insert(context.Background(), &attest.Record{
		Identifier:    "ATT-1712345678901-0A1B2C3D",
		OwnerID:       "u1",
		DisplayName:   "doc.pdf",
		ContentKind:   "application/pdf",
		ContentLength: 42,
		Digest:        digest,
		StorageKey:    "content/2024/4/1/key",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "row-1" || !rec.CreatedAt.Equal(created) {
		t.Fatalf("row id / created_at not filled in: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsert_UniqueViolationMapsToDuplicateIdentifier(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO attestations`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "attestations_attestation_id_key"})

	_, err := repo.Insert(context.Background(), &attest.Record{Identifier: "ATT-1-00000000"})
	if !errors.Is(err, common.ErrDuplicateIdentifier) {
		t.Fatalf("want ErrDuplicateIdentifier, got %v", err)
	}
}

func TestInsert_OtherDBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO attestations`).WillReturnError(errors.New("down"))

	_, err := repo.Insert(context.Background(), &attest.Record{})
	if err == nil || errors.Is(err, common.ErrDuplicateIdentifier) {
		t.Fatalf("want plain db error, got %v", err)
	}
}

func TestByDigest_ReturnsOrderedRecords(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := recordColumnsRows().
		AddRow("row-2", "ATT-2-BBBBBBBB", "u1", "b.txt", "text/plain", int64(2), digest, "k2", now).
		AddRow("row-1", "ATT-1-AAAAAAAA", "u1", "a.txt", "text/plain", int64(1), digest, "k1", now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .* FROM attestations WHERE file_hash=\$1 ORDER BY created_at DESC`).
		WithArgs(digest).
		WillReturnRows(rows)

	recs, err := repo.ByDigest(context.Background(), digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].Identifier != "ATT-2-BBBBBBBB" {
		t.Fatalf("unexpected result: %+v", recs)
	}
}

func TestByIdentifier_NoRowsYieldsEmptySlice(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM attestations WHERE attestation_id=\$1`).
		WithArgs("ATT-1-DEADBEEF").
		WillReturnRows(recordColumnsRows())

	recs, err := repo.ByIdentifier(context.Background(), "ATT-1-DEADBEEF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

const (
	rowID1 = "0b3f7a62-1db8-4c5e-9a11-1111aaaa0001"
	rowID2 = "0b3f7a62-1db8-4c5e-9a11-1111aaaa0002"
)

func TestGetForOwner_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM attestations WHERE id=\$1 AND user_id=\$2`).
		WithArgs(rowID1, "u1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForOwner(context.Background(), "u1", rowID1)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetForOwner_NonUUIDIDIsNotFoundWithoutQuery(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.GetForOwner(context.Background(), "u1", "garbage")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}

	err = repo.DeleteForOwner(context.Background(), "u1", "garbage")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}

	// the uuid column was never queried with the bad value
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestDeleteForOwner_RowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM attestations WHERE id=\$1 AND user_id=\$2`).
		WithArgs(rowID1, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteForOwner(context.Background(), "u1", rowID1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`DELETE FROM attestations WHERE id=\$1 AND user_id=\$2`).
		WithArgs(rowID2, "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteForOwner(context.Background(), "u1", rowID2)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestExistsByDigestAndCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(digest).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByDigest(context.Background(), digest)
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM attestations WHERE user_id=\$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.CountByOwner(context.Background(), "u1")
	if err != nil || n != 7 {
		t.Fatalf("got n=%d err=%v", n, err)
	}
}
