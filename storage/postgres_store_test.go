package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"asin-lister/models"
)

func mockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return &PostgresStore{db: db}, mock
}

func TestPostgresDeleteHonoursKeepList(t *testing.T) {
	ps, mock := mockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM candidates WHERE asin = ANY($1) RETURNING asin`)).
		WithArgs(pq.Array([]string{"B0TEST0002", "B0TEST0003"})).
		WillReturnRows(sqlmock.NewRows([]string{"asin"}).AddRow("B0TEST0002"))

	got, err := ps.Delete(context.Background(),
		[]string{"B0TEST0001", "B0TEST0002", "B0TEST0003"}, []string{"b0test0001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "B0TEST0002" {
		t.Errorf("Delete = %v; want [B0TEST0002]", got)
	}
}

func TestPostgresDeleteAllKeptSkipsQuery(t *testing.T) {
	ps, _ := mockStore(t)
	got, err := ps.Delete(context.Background(), []string{"B0TEST0001"}, []string{"B0TEST0001"})
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("Delete = %v, %v; want empty slice and no query", got, err)
	}
}

func TestPostgresRecordListedCommits(t *testing.T) {
	ps, mock := mockStore(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO candidates (asin, item_code, updated_at) VALUES ($1, $2, NOW())`))
	prep.ExpectExec().WithArgs("B0TEST0001", "Q1").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("B0TEST0002", "Q2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ps.RecordListed(context.Background(), []models.ListingOutcome{
		{ASIN: "B0TEST0001", Status: models.StatusSuccess, ItemCode: "Q1"},
		{ASIN: "B0TEST0002", Status: models.StatusSuccess, ItemCode: "Q2"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRecordListedRollsBackOnError(t *testing.T) {
	ps, mock := mockStore(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO candidates`)
	prep.ExpectExec().WithArgs("B0TEST0001", "Q1").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := ps.RecordListed(context.Background(), []models.ListingOutcome{{ASIN: "B0TEST0001", ItemCode: "Q1"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresRefreshUpsertsWithoutItemCode(t *testing.T) {
	ps, mock := mockStore(t)
	inStock := true
	mock.ExpectExec(`INSERT INTO candidates \(asin, name, catalog_id, image, price, in_stock, updated_at\)\s+VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)\s+ON CONFLICT \(asin\) DO UPDATE`).
		WithArgs("B0TEST0001", "UV milk", "", "https://img.example/1.jpg", 2500.0, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ps.Refresh(context.Background(), []models.ListingCandidate{{
		ASIN: "B0TEST0001", Name: "UV milk", Image: "https://img.example/1.jpg", Price: 2500, InStock: &inStock,
	}})
	if err != nil {
		t.Fatal(err)
	}
}
