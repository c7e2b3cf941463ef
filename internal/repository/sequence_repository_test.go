package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// The upsert-increment has two result shapes: a fresh (tenant, day)
// INSERT reports one affected row and the counter is 1; every later
// call hits the ON DUPLICATE branch, reports two, and carries the new
// value through LAST_INSERT_ID. Consecutive draws must come back
// distinct and strictly increasing.
func TestSequenceNext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewSequenceRepo(db)

	mock.ExpectExec(`INSERT INTO receipt_sequences`).
		WithArgs(uint64(1), "20250301").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO receipt_sequences`).
		WithArgs(uint64(1), "20250301").
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectExec(`INSERT INTO receipt_sequences`).
		WithArgs(uint64(1), "20250301").
		WillReturnResult(sqlmock.NewResult(3, 2))

	ctx := context.Background()
	var prev uint64
	for i := 0; i < 3; i++ {
		seq, err := repo.Next(ctx, 1, "20250301")
		if err != nil {
			t.Fatalf("Next draw %d: %v", i+1, err)
		}
		if seq != uint64(i+1) {
			t.Fatalf("draw %d: got %d, want %d", i+1, seq, i+1)
		}
		if seq <= prev && i > 0 {
			t.Fatalf("draw %d not strictly increasing: %d after %d", i+1, seq, prev)
		}
		prev = seq
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
