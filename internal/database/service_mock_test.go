package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"ad-rewards-go/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMockDb(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	return newService(db), mock, func() { db.Close() }
}

var accountColumns = []string{"user_id", "points", "total_earned", "total_withdrawn", "version", "updated_at"}

func expectEnsureAccount(mock sqlmock.Sqlmock, userId, points, version int64) {
	mock.ExpectQuery("SELECT 1 FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("INSERT OR IGNORE INTO user_points").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id, points, total_earned").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(userId, points, points, 0, version, time.Now()))
}

func TestCreditPoints_AdViewFailureRollsBackCredit(t *testing.T) {
	service, mock, cleanup := setupMockDb(t)
	defer cleanup()

	mock.ExpectBegin()
	expectEnsureAccount(mock, 7, 10, 3)
	mock.ExpectExec("UPDATE user_points").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO point_transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ad_views").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err := service.CreditPoints(context.Background(), store.CreditParams{UserId: 7, Points: 2, AdId: "x", RecordAdView: true})
	if err == nil {
		t.Fatalf("Expected error when the ad view insert fails, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestCreditPoints_VersionConflict(t *testing.T) {
	service, mock, cleanup := setupMockDb(t)
	defer cleanup()

	mock.ExpectBegin()
	expectEnsureAccount(mock, 7, 10, 3)
	mock.ExpectExec("UPDATE user_points").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := service.CreditPoints(context.Background(), store.CreditParams{UserId: 7, Points: 2, RecordAdView: true, AdId: "x"})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestSubmitWithdrawal_InsertFailureRollsBackDeduction(t *testing.T) {
	service, mock, cleanup := setupMockDb(t)
	defer cleanup()

	mock.ExpectBegin()
	expectEnsureAccount(mock, 7, 1000, 1)
	mock.ExpectQuery("SELECT is_blocked, block_reason, is_vpn_user FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"is_blocked", "block_reason", "is_vpn_user"}).AddRow(false, nil, false))
	mock.ExpectQuery("UPDATE user_points").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(100))
	mock.ExpectExec("INSERT INTO withdrawal_requests").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	_, err := service.SubmitWithdrawal(context.Background(), store.WithdrawalParams{
		UserId: 7, Points: 900, AmountUsd: "3.00", Method: "paypal", MethodDetails: "a@b.com",
	})
	if err == nil {
		t.Fatalf("Expected error when the request insert fails, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestBeginFailureSurfacesError(t *testing.T) {
	service, mock, cleanup := setupMockDb(t)
	defer cleanup()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	if _, err := service.GetOrCreateAccount(context.Background(), 1); err == nil {
		t.Fatalf("Expected error when begin fails, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}

func TestGetStats_QueryFailure(t *testing.T) {
	service, mock, cleanup := setupMockDb(t)
	defer cleanup()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("no such table: user_points"))

	if _, err := service.GetStats(context.Background()); err == nil {
		t.Fatalf("Expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}
