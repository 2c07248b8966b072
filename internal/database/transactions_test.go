package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     time.Second,
		BusyTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}

	return service, cleanup
}

func createTestUser(t *testing.T, service *Service, openId string) *models.User {
	t.Helper()

	user, err := service.UpsertUser(context.Background(), store.UpsertUserParams{
		OpenId: openId,
		Name:   "Test " + openId,
		Email:  openId + "@example.com",
	})
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	return user
}

func fundAccount(t *testing.T, service *Service, userId, points int64) {
	t.Helper()

	_, err := service.CreditPoints(context.Background(), store.CreditParams{
		UserId:    userId,
		Points:    points,
		Type:      models.TxTypeAdView,
		Reference: "test funding",
	})
	if err != nil {
		t.Fatalf("Funding account failed: %v", err)
	}
}

func assertAccount(t *testing.T, service *Service, userId, points, earned, withdrawn int64) {
	t.Helper()

	account, err := service.GetOrCreateAccount(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}
	if account.Points != points || account.TotalEarned != earned || account.TotalWithdrawn != withdrawn {
		t.Errorf("Expected account {%d,%d,%d}, got {%d,%d,%d}",
			points, earned, withdrawn, account.Points, account.TotalEarned, account.TotalWithdrawn)
	}
}

func TestGetOrCreateAccount_CreatesZeroAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "fresh")
	assertAccount(t, service, user.Id, 0, 0, 0)

	// Second read returns the persisted row, not another insert
	account, err := service.GetOrCreateAccount(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}
	if account.Version != 1 {
		t.Errorf("Expected version 1, got %d", account.Version)
	}
}

func TestGetOrCreateAccount_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetOrCreateAccount(context.Background(), 9999)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditPoints_RecordsAdView(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "viewer")

	result, err := service.CreditPoints(ctx, store.CreditParams{
		UserId:       user.Id,
		Points:       3,
		AdId:         "x",
		RecordAdView: true,
	})
	if err != nil {
		t.Fatalf("CreditPoints failed: %v", err)
	}

	if result.PointsBefore != 0 || result.PointsAfter != 3 {
		t.Errorf("Expected 0 -> 3, got %d -> %d", result.PointsBefore, result.PointsAfter)
	}
	if result.Type != models.TxTypeAdView {
		t.Errorf("Expected type %s, got %s", models.TxTypeAdView, result.Type)
	}
	assertAccount(t, service, user.Id, 3, 3, 0)

	views, err := service.CountAdViews(ctx, user.Id)
	if err != nil {
		t.Fatalf("CountAdViews failed: %v", err)
	}
	if views != 1 {
		t.Errorf("Expected 1 ad view, got %d", views)
	}
}

func TestCreditPoints_RejectsNonPositive(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "zero")
	if _, err := service.CreditPoints(context.Background(), store.CreditParams{UserId: user.Id, Points: 0}); err == nil {
		t.Fatalf("Expected error for zero credit, got nil")
	}
}

func TestSubmitWithdrawal_DeductsAndRecordsPending(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "withdrawer")
	fundAccount(t, service, user.Id, 1000)

	request, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId:        user.Id,
		Points:        900,
		AmountUsd:     "3.00",
		Method:        models.MethodPaypal,
		MethodDetails: "a@b.com",
	})
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	if request.Id == 0 {
		t.Errorf("Expected a request id")
	}
	assertAccount(t, service, user.Id, 100, 1000, 900)

	stored, err := service.GetWithdrawalById(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetWithdrawalById failed: %v", err)
	}
	if stored.Status != models.StatusPending {
		t.Errorf("Expected pending, got %s", stored.Status)
	}
	if stored.AmountUsd != "3.00" || stored.Points != 900 {
		t.Errorf("Expected 900 points / 3.00, got %d / %s", stored.Points, stored.AmountUsd)
	}
	if stored.ProcessedAt.Valid {
		t.Errorf("Expected no processed time on a pending request")
	}
}

func TestSubmitWithdrawal_InsufficientPoints(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "short")
	fundAccount(t, service, user.Id, 899)

	_, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodInstapay, MethodDetails: "01012345678",
	})
	if !errors.Is(err, store.ErrInsufficientPoints) {
		t.Fatalf("Expected ErrInsufficientPoints, got %v", err)
	}

	assertAccount(t, service, user.Id, 899, 899, 0)
	requests, err := service.GetUserWithdrawals(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserWithdrawals failed: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("Expected no withdrawal requests, got %d", len(requests))
	}
}

func TestSubmitWithdrawal_RefusesFlaggedAccountsInsideTransaction(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := func(userId int64) store.WithdrawalParams {
		return store.WithdrawalParams{
			UserId: userId, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "a@b.com",
		}
	}

	// The caller read the user while it was still clean; the flag lands
	// before the submission reaches the store.
	blocked := createTestUser(t, service, "blocked-late")
	fundAccount(t, service, blocked.Id, 1000)
	if blocked.IsBlocked {
		t.Fatalf("Expected a fresh user to be unblocked")
	}
	if err := service.SetUserBlocked(ctx, blocked.Id, true, "chargeback"); err != nil {
		t.Fatalf("SetUserBlocked failed: %v", err)
	}

	_, err := service.SubmitWithdrawal(ctx, params(blocked.Id))
	var blockedErr *store.AccountBlockedError
	if !errors.As(err, &blockedErr) {
		t.Fatalf("Expected AccountBlockedError, got %v", err)
	}
	if blockedErr.Reason != "chargeback" {
		t.Errorf("Expected reason chargeback, got %q", blockedErr.Reason)
	}
	assertAccount(t, service, blocked.Id, 1000, 1000, 0)

	vpn := createTestUser(t, service, "vpn-late")
	fundAccount(t, service, vpn.Id, 1000)
	if err := service.RecordFraudSignal(ctx, vpn.Id, store.FraudSignalParams{IsVpnUser: true, FraudScore: 80}); err != nil {
		t.Fatalf("RecordFraudSignal failed: %v", err)
	}

	_, err = service.SubmitWithdrawal(ctx, params(vpn.Id))
	if !errors.Is(err, store.ErrVpnNotAllowed) {
		t.Fatalf("Expected ErrVpnNotAllowed, got %v", err)
	}
	assertAccount(t, service, vpn.Id, 1000, 1000, 0)

	for _, userId := range []int64{blocked.Id, vpn.Id} {
		requests, err := service.GetUserWithdrawals(ctx, userId)
		if err != nil {
			t.Fatalf("GetUserWithdrawals failed: %v", err)
		}
		if len(requests) != 0 {
			t.Errorf("Expected no requests for user %d, got %d", userId, len(requests))
		}
	}
}

func TestSubmitWithdrawal_BlockedBeforeVpnBeforeBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "all-flags")
	if err := service.SetUserBlocked(ctx, user.Id, true, "fraud"); err != nil {
		t.Fatalf("SetUserBlocked failed: %v", err)
	}
	if err := service.RecordFraudSignal(ctx, user.Id, store.FraudSignalParams{IsVpnUser: true}); err != nil {
		t.Fatalf("RecordFraudSignal failed: %v", err)
	}

	_, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "a@b.com",
	})
	if !errors.Is(err, store.ErrAccountBlocked) {
		t.Fatalf("Expected ErrAccountBlocked first, got %v", err)
	}
}

func TestSubmitWithdrawal_ConcurrentSubmissionsNeverOverspend(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "racer")
	fundAccount(t, service, user.Id, 1000)

	const attempts = 2
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.SubmitWithdrawal(ctx, store.WithdrawalParams{
				UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodVodafoneCash, MethodDetails: "01012345678",
			})
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientPoints):
			insufficient++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("Expected exactly one success and one insufficient, got %d / %d", succeeded, insufficient)
	}
	assertAccount(t, service, user.Id, 100, 1000, 900)
}

func TestTransitionWithdrawal_RejectRestoresOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "rejected")
	fundAccount(t, service, user.Id, 1000)

	request, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "a@b.com",
	})
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	result, err := service.TransitionWithdrawal(ctx, store.TransitionParams{
		RequestId: request.Id,
		Status:    models.StatusRejected,
		Policy:    models.RejectCreditEarned,
	})
	if err != nil {
		t.Fatalf("TransitionWithdrawal failed: %v", err)
	}
	if result.Restored != 900 {
		t.Errorf("Expected 900 restored points, got %d", result.Restored)
	}
	if result.Request.Status != models.StatusRejected || !result.Request.ProcessedAt.Valid {
		t.Errorf("Expected rejected request with processed time, got %+v", result.Request)
	}
	assertAccount(t, service, user.Id, 1000, 1900, 900)

	// Rejecting again must not credit a second time
	_, err = service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: request.Id, Status: models.StatusRejected})
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Fatalf("Expected ErrAlreadyProcessed, got %v", err)
	}
	assertAccount(t, service, user.Id, 1000, 1900, 900)
}

func TestTransitionWithdrawal_ReverseWithdrawnPolicy(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "reversed")
	fundAccount(t, service, user.Id, 1000)

	request, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "a@b.com",
	})
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	_, err = service.TransitionWithdrawal(ctx, store.TransitionParams{
		RequestId: request.Id,
		Status:    models.StatusRejected,
		Policy:    models.RejectReverseWithdrawn,
	})
	if err != nil {
		t.Fatalf("TransitionWithdrawal failed: %v", err)
	}
	assertAccount(t, service, user.Id, 1000, 1000, 0)
}

func TestTransitionWithdrawal_ApproveKeepsBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "approved")
	fundAccount(t, service, user.Id, 1200)

	request, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodInstapay, MethodDetails: "01012345678",
	})
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	result, err := service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: request.Id, Status: models.StatusApproved})
	if err != nil {
		t.Fatalf("TransitionWithdrawal failed: %v", err)
	}
	if result.Restored != 0 {
		t.Errorf("Expected no restored points on approval, got %d", result.Restored)
	}
	assertAccount(t, service, user.Id, 300, 1200, 900)

	// A terminal request cannot be rejected afterwards
	_, err = service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: request.Id, Status: models.StatusRejected})
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Fatalf("Expected ErrAlreadyProcessed, got %v", err)
	}
	assertAccount(t, service, user.Id, 300, 1200, 900)
}

func TestTransitionWithdrawal_NotFoundAndInvalidStatus(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	_, err := service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: 424242, Status: models.StatusApproved})
	if !errors.Is(err, store.ErrWithdrawalNotFound) {
		t.Errorf("Expected ErrWithdrawalNotFound, got %v", err)
	}

	_, err = service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: 1, Status: models.StatusPending})
	if err == nil {
		t.Errorf("Expected error for pending target status, got nil")
	}
}

func TestTransitionWithdrawal_ConcurrentRejectsCreditOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "double-reject")
	fundAccount(t, service, user.Id, 900)

	request, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "a@b.com",
	})
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.TransitionWithdrawal(ctx, store.TransitionParams{RequestId: request.Id, Status: models.StatusRejected})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, store.ErrAlreadyProcessed) {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("Expected exactly one successful rejection, got %d", succeeded)
	}
	assertAccount(t, service, user.Id, 900, 1800, 900)
}

func TestSetPoints_OverridesOnlyBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "override")
	fundAccount(t, service, user.Id, 50)

	result, err := service.SetPoints(ctx, user.Id, 5000)
	if err != nil {
		t.Fatalf("SetPoints failed: %v", err)
	}
	if result.Amount != 4950 || result.Type != models.TxTypeAdminSet {
		t.Errorf("Expected admin_set of 4950, got %s of %d", result.Type, result.Amount)
	}
	assertAccount(t, service, user.Id, 5000, 50, 0)

	drift, err := service.GetAccountDrift(ctx)
	if err != nil {
		t.Fatalf("GetAccountDrift failed: %v", err)
	}
	if len(drift) != 1 || drift[0].UserId != user.Id || drift[0].Expected() != 50 {
		t.Errorf("Expected one drifted account for user %d, got %+v", user.Id, drift)
	}

	if _, err := service.SetPoints(ctx, user.Id, -1); err == nil {
		t.Errorf("Expected error for negative points, got nil")
	}
}

func TestGetTransactionHistory_NewestFirst(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "history")
	for i := 0; i < 3; i++ {
		if _, err := service.CreditPoints(ctx, store.CreditParams{UserId: user.Id, Points: 2, AdId: "ad", RecordAdView: true}); err != nil {
			t.Fatalf("CreditPoints failed: %v", err)
		}
	}

	history, err := service.GetTransactionHistory(ctx, user.Id, 2, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}
	if history[0].PointsAfter != 6 || history[1].PointsAfter != 4 {
		t.Errorf("Expected newest first (6, 4), got (%d, %d)", history[0].PointsAfter, history[1].PointsAfter)
	}

	rest, err := service.GetTransactionHistory(ctx, user.Id, 2, 2)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(rest) != 1 || rest[0].PointsBefore != 0 {
		t.Errorf("Expected the first credit on the second page, got %+v", rest)
	}
}
