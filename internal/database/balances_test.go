package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"
)

func TestUpsertUser_PreservesRoleAndBlockFlags(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "returning")
	if user.Role != models.RoleUser {
		t.Fatalf("Expected new user role %s, got %s", models.RoleUser, user.Role)
	}

	if err := service.SetUserRole(ctx, user.Id, models.RoleAdmin); err != nil {
		t.Fatalf("SetUserRole failed: %v", err)
	}
	if err := service.SetUserBlocked(ctx, user.Id, true, "chargeback"); err != nil {
		t.Fatalf("SetUserBlocked failed: %v", err)
	}

	again, err := service.UpsertUser(ctx, store.UpsertUserParams{OpenId: "returning", Name: "Renamed"})
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if again.Id != user.Id {
		t.Errorf("Expected same id %d, got %d", user.Id, again.Id)
	}
	if again.Role != models.RoleAdmin {
		t.Errorf("Expected role to survive sign-in, got %s", again.Role)
	}
	if !again.IsBlocked || again.BlockReason.String != "chargeback" {
		t.Errorf("Expected block flag to survive sign-in, got %v %q", again.IsBlocked, again.BlockReason.String)
	}
	if again.Name.String != "Renamed" || again.Email.String != "returning@example.com" {
		t.Errorf("Expected name refreshed and email kept, got %q %q", again.Name.String, again.Email.String)
	}
}

func TestSetUserBlocked_UnblockClearsReason(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "unblock")
	if err := service.SetUserBlocked(ctx, user.Id, true, "abuse"); err != nil {
		t.Fatalf("SetUserBlocked failed: %v", err)
	}
	if err := service.SetUserBlocked(ctx, user.Id, false, "ignored"); err != nil {
		t.Fatalf("SetUserBlocked failed: %v", err)
	}

	reloaded, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if reloaded.IsBlocked || reloaded.BlockReason.Valid {
		t.Errorf("Expected unblocked user without reason, got %v %q", reloaded.IsBlocked, reloaded.BlockReason.String)
	}
}

func TestUserUpdates_UnknownUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.SetUserRole(ctx, 777, models.RoleAdmin); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("SetUserRole: expected ErrUserNotFound, got %v", err)
	}
	if err := service.SetUserBlocked(ctx, 777, true, ""); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("SetUserBlocked: expected ErrUserNotFound, got %v", err)
	}
	if err := service.RecordFraudSignal(ctx, 777, store.FraudSignalParams{IsVpnUser: true}); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("RecordFraudSignal: expected ErrUserNotFound, got %v", err)
	}
	if _, err := service.GetUserById(ctx, 777); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("GetUserById: expected ErrUserNotFound, got %v", err)
	}
	if err := service.SetUserRole(ctx, 777, "root"); err == nil {
		t.Errorf("SetUserRole: expected error for invalid role")
	}
}

func TestRecordFraudSignal(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "vpn")
	err := service.RecordFraudSignal(ctx, user.Id, store.FraudSignalParams{IsVpnUser: true, FraudScore: 80, LastIpAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("RecordFraudSignal failed: %v", err)
	}

	reloaded, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !reloaded.IsVpnUser || reloaded.FraudScore != 80 || reloaded.LastIpAddress.String != "10.0.0.1" {
		t.Errorf("Unexpected fraud fields: %+v", reloaded)
	}
}

func TestCountAdViewsSince(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user := createTestUser(t, service, "today")

	yesterday := time.Now().UTC().Add(-36 * time.Hour)
	service.now = func() time.Time { return yesterday }
	if _, err := service.CreditPoints(ctx, store.CreditParams{UserId: user.Id, Points: 1, AdId: "old", RecordAdView: true}); err != nil {
		t.Fatalf("CreditPoints failed: %v", err)
	}
	service.now = func() time.Time { return time.Now().UTC() }
	for i := 0; i < 2; i++ {
		if _, err := service.CreditPoints(ctx, store.CreditParams{UserId: user.Id, Points: 1, AdId: "new", RecordAdView: true}); err != nil {
			t.Fatalf("CreditPoints failed: %v", err)
		}
	}

	total, err := service.CountAdViews(ctx, user.Id)
	if err != nil {
		t.Fatalf("CountAdViews failed: %v", err)
	}
	recent, err := service.CountAdViewsSince(ctx, user.Id, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountAdViewsSince failed: %v", err)
	}
	if total != 3 || recent != 2 {
		t.Errorf("Expected total 3 and recent 2, got %d and %d", total, recent)
	}
}

func TestGetUsersWithPointsAndStats(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	createTestUser(t, service, "carol")

	fundAccount(t, service, alice.Id, 1000)
	if _, err := service.CreditPoints(ctx, store.CreditParams{UserId: bob.Id, Points: 5, AdId: "a", RecordAdView: true}); err != nil {
		t.Fatalf("CreditPoints failed: %v", err)
	}
	if _, err := service.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId: alice.Id, Points: 900, AmountUsd: "3.00", Method: models.MethodPaypal, MethodDetails: "alice@example.com",
	}); err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	users, err := service.GetUsersWithPoints(ctx)
	if err != nil {
		t.Fatalf("GetUsersWithPoints failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("Expected 3 users, got %d", len(users))
	}
	byOpenId := map[string]models.UserWithPoints{}
	for _, u := range users {
		byOpenId[u.OpenId] = u
	}
	if byOpenId["alice"].Points != 100 || byOpenId["alice"].TotalWithdrawn != 900 {
		t.Errorf("Unexpected alice row: %+v", byOpenId["alice"])
	}
	if byOpenId["bob"].AdViewCount != 1 || byOpenId["bob"].Points != 5 {
		t.Errorf("Unexpected bob row: %+v", byOpenId["bob"])
	}
	if byOpenId["carol"].Points != 0 || byOpenId["carol"].AdViewCount != 0 {
		t.Errorf("Unexpected carol row: %+v", byOpenId["carol"])
	}

	stats, err := service.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	want := models.LedgerStats{UserCount: 3, TotalEarned: 1005, TotalWithdrawn: 900, PendingCount: 1, PendingPoints: 900}
	if *stats != want {
		t.Errorf("Expected stats %+v, got %+v", want, *stats)
	}

	pending, err := service.GetWithdrawalsByStatus(ctx, models.StatusPending)
	if err != nil {
		t.Fatalf("GetWithdrawalsByStatus failed: %v", err)
	}
	if len(pending) != 1 || pending[0].UserEmail.String != "alice@example.com" {
		t.Errorf("Expected alice's pending request joined with identity, got %+v", pending)
	}

	approved, err := service.GetWithdrawalsByStatus(ctx, models.StatusApproved)
	if err != nil {
		t.Fatalf("GetWithdrawalsByStatus failed: %v", err)
	}
	if len(approved) != 0 {
		t.Errorf("Expected no approved requests, got %d", len(approved))
	}

	all, err := service.GetWithdrawalsByStatus(ctx, "")
	if err != nil {
		t.Fatalf("GetWithdrawalsByStatus failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 request in total, got %d", len(all))
	}
}

func TestStats_EmptyLedger(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	stats, err := service.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if *stats != (models.LedgerStats{}) {
		t.Errorf("Expected zero stats, got %+v", *stats)
	}
}

func TestUpsertAd_UpdatesByTitle(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	first, err := service.UpsertAd(ctx, store.UpsertAdParams{Title: "Spring Sale", RewardPoints: 1, Duration: 30, IsActive: true})
	if err != nil {
		t.Fatalf("UpsertAd failed: %v", err)
	}
	second, err := service.UpsertAd(ctx, store.UpsertAdParams{Title: "Spring Sale", RewardPoints: 2, Duration: 15, IsActive: true})
	if err != nil {
		t.Fatalf("UpsertAd failed: %v", err)
	}
	if first.Id != second.Id || second.RewardPoints != 2 || second.Duration != 15 {
		t.Errorf("Expected in-place update, got %+v then %+v", first, second)
	}

	if _, err := service.UpsertAd(ctx, store.UpsertAdParams{Title: "Retired", IsActive: false}); err != nil {
		t.Fatalf("UpsertAd failed: %v", err)
	}
	ads, err := service.GetActiveAds(ctx)
	if err != nil {
		t.Fatalf("GetActiveAds failed: %v", err)
	}
	if len(ads) != 1 || ads[0].Title != "Spring Sale" {
		t.Errorf("Expected only the active ad, got %+v", ads)
	}
}
