package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apierrors.Kind
	}{
		{name: "should map unique violations to conflicts", err: &pq.Error{Code: "23505"}, want: apierrors.KindConflict},
		{name: "should map foreign key violations to conflicts", err: &pq.Error{Code: "23503"}, want: apierrors.KindConflict},
		{name: "should map check violations to conflicts", err: &pq.Error{Code: "23514"}, want: apierrors.KindConflict},
		{name: "should keep other postgres errors internal", err: &pq.Error{Code: "57014"}, want: apierrors.KindInternal},
		{name: "should keep connection errors internal", err: sql.ErrConnDone, want: apierrors.KindInternal},
		{name: "should pass api errors through", err: apierrors.NotFound("booking"), want: apierrors.KindNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.err)
			if kind := apierrors.KindOf(got); kind != tt.want {
				t.Errorf("Classify() kind = %s, want %s", kind, tt.want)
			}
			if !errors.Is(got, tt.err) && tt.want != apierrors.KindNotFound {
				t.Errorf("Classify() lost the original error")
			}
		})
	}
	if Classify(nil) != nil {
		t.Errorf("Classify(nil) should be nil")
	}
}

func TestWithTx(t *testing.T) {
	t.Run("should commit when the unit of work succeeds", func(t *testing.T) {
		dbConn := mock.MustCreateConnectionMock()
		dbConn.SQLMock.ExpectBegin()
		dbConn.SQLMock.ExpectExec("UPDATE tb_booking").WillReturnResult(sqlmock.NewResult(0, 1))
		dbConn.SQLMock.ExpectCommit()
		err := WithTx(context.TODO(), dbConn, func(tx *sql.Tx) error {
			_, err := tx.Exec("UPDATE tb_booking SET note = 'x'")
			return err
		})
		if err != nil {
			t.Errorf("WithTx() unexpected error %v", err)
		}
		if err = dbConn.SQLMock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
	t.Run("should roll back when the unit of work fails", func(t *testing.T) {
		dbConn := mock.MustCreateConnectionMock()
		dbConn.SQLMock.ExpectBegin()
		dbConn.SQLMock.ExpectExec("UPDATE tb_booking").WillReturnError(sql.ErrConnDone)
		dbConn.SQLMock.ExpectRollback()
		err := WithTx(context.TODO(), dbConn, func(tx *sql.Tx) error {
			_, err := tx.Exec("UPDATE tb_booking SET note = 'x'")
			return err
		})
		if !errors.Is(err, sql.ErrConnDone) {
			t.Errorf("WithTx() error = %v, want %v", err, sql.ErrConnDone)
		}
		if err = dbConn.SQLMock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}
