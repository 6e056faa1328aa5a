package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

func newMockTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sdb := sqlx.NewDb(db, "sqlmock")
	mock.ExpectBegin()
	tx, err := sdb.Beginx()
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	return tx, mock
}

func TestActivityExistsAtHeight(t *testing.T) {
	tx, mock := newMockTx(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(840_000)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := ActivityExistsAtHeight(context.Background(), tx, 840_000)
	if err != nil {
		t.Fatalf("ActivityExistsAtHeight failed: %v", err)
	}
	if !exists {
		t.Error("Expected activity to exist")
	}
}

func TestActivityExistsAtHeight_Clean(t *testing.T) {
	tx, mock := newMockTx(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := ActivityExistsAtHeight(context.Background(), tx, 1)
	if err != nil {
		t.Fatalf("ActivityExistsAtHeight failed: %v", err)
	}
	if exists {
		t.Error("Expected no activity at a fresh height")
	}
}

func TestInsertInscription(t *testing.T) {
	tx, mock := newMockTx(t)

	txHash := "ff00000000000000000000000000000000000000000000000000000000000000"
	reveal := &domain.InscriptionRevealed{
		InscriptionID: domain.NewInscriptionID(txHash, 0),
		Number:        7,
		Ordinal:       999,
		ContentType:   "text/plain",
		ContentLength: 3,
		InputIndex:    0,
		SatPoint:      domain.NewSatPoint(txHash, 0, 0),
	}

	mock.ExpectExec("INSERT INTO inscriptions").
		WithArgs(reveal.InscriptionID, reveal.Number, reveal.Ordinal, reveal.ContentType,
			reveal.ContentLength, uint64(840_000), txHash, reveal.InputIndex,
			domain.NewOutPoint(txHash, 0), reveal.SatPoint).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := InsertInscription(context.Background(), tx, 840_000, txHash, reveal); err != nil {
		t.Fatalf("InsertInscription failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestInsertTransfer_WithLocationUpdate(t *testing.T) {
	tx, mock := newMockTx(t)

	transfer := &domain.InscriptionTransferred{
		InscriptionID:        "abci0",
		SatPointPreTransfer:  "abc:0:0",
		SatPointPostTransfer: "def:0:330",
	}

	mock.ExpectExec("INSERT INTO inscription_transfers").
		WithArgs(transfer.InscriptionID, uint64(840_001), "def",
			transfer.SatPointPreTransfer, transfer.SatPointPostTransfer).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE inscriptions SET outpoint").
		WithArgs("def:0", transfer.SatPointPostTransfer, transfer.InscriptionID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := InsertTransfer(context.Background(), tx, 840_001, "def", transfer, true); err != nil {
		t.Fatalf("InsertTransfer failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestInsertTransfer_WithoutLocationUpdate(t *testing.T) {
	tx, mock := newMockTx(t)

	transfer := &domain.InscriptionTransferred{
		InscriptionID:        "abci0",
		SatPointPreTransfer:  "abc:0:0",
		SatPointPostTransfer: "def:0:0",
	}

	mock.ExpectExec("INSERT INTO inscription_transfers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := InsertTransfer(context.Background(), tx, 840_001, "def", transfer, false); err != nil {
		t.Fatalf("InsertTransfer failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Expected no location update: %v", err)
	}
}

func TestInscriptionsAtOutPoints(t *testing.T) {
	tx, mock := newMockTx(t)

	mock.ExpectQuery("FROM inscriptions WHERE outpoint IN").
		WithArgs("abc:0", "xyz:1").
		WillReturnRows(sqlmock.NewRows([]string{"inscription_id", "number", "ordinal", "outpoint", "satpoint"}).
			AddRow("abci0", 1, 100, "abc:0", "abc:0:0").
			AddRow("abci1", 2, 200, "abc:0", "abc:0:1"))

	located, err := InscriptionsAtOutPoints(context.Background(), tx, []string{"abc:0", "xyz:1"})
	if err != nil {
		t.Fatalf("InscriptionsAtOutPoints failed: %v", err)
	}
	if len(located["abc:0"]) != 2 {
		t.Fatalf("Expected 2 inscriptions at abc:0, got %d", len(located["abc:0"]))
	}
	if len(located["xyz:1"]) != 0 {
		t.Error("Expected no inscriptions at xyz:1")
	}
	if located["abc:0"][0].Number != 1 {
		t.Errorf("Expected number 1, got %d", located["abc:0"][0].Number)
	}
}

func TestInscriptionsAtOutPoints_Empty(t *testing.T) {
	tx, mock := newMockTx(t)

	located, err := InscriptionsAtOutPoints(context.Background(), tx, nil)
	if err != nil {
		t.Fatalf("InscriptionsAtOutPoints failed: %v", err)
	}
	if len(located) != 0 {
		t.Error("Expected empty result for no outpoints")
	}
	// No query should have been issued.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unexpected query: %v", err)
	}
}
