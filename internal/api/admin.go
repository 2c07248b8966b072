package api

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// AdminService holds the privileged review and adjustment operations. Every
// method that takes an actor checks the actor's role field.
type AdminService struct {
	store  store.LedgerStore
	points *PointsService
}

func NewAdminService(s store.LedgerStore, points *PointsService) *AdminService {
	return &AdminService{store: s, points: points}
}

func requireAdmin(actor *models.User) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

// ListUsers returns every user with balance and ad view count
func (s *AdminService) ListUsers(ctx context.Context, actor *models.User) ([]models.UserWithPoints, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.store.GetUsersWithPoints(ctx)
	if err != nil {
		zap.L().Error("User listing failed, returning empty list", zap.Error(err))
		return []models.UserWithPoints{}, nil
	}
	return users, nil
}

// ListWithdrawals returns requests with requester identity. An empty status
// returns every request.
func (s *AdminService) ListWithdrawals(ctx context.Context, actor *models.User, status models.WithdrawalStatus) ([]models.PendingWithdrawal, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStatusFilter(status); err != nil {
		return nil, err
	}
	requests, err := s.store.GetWithdrawalsByStatus(ctx, status)
	if err != nil {
		zap.L().Error("Withdrawal listing failed, returning empty list", zap.Error(err))
		return []models.PendingWithdrawal{}, nil
	}
	return requests, nil
}

// ListPending returns the review queue
func (s *AdminService) ListPending(ctx context.Context, actor *models.User) ([]models.PendingWithdrawal, error) {
	return s.ListWithdrawals(ctx, actor, models.StatusPending)
}

// Stats returns ledger rollups. USD figures use the configured exchange rate.
func (s *AdminService) Stats(ctx context.Context, actor *models.User) (models.StatsResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return models.StatsResponse{}, err
	}

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		zap.L().Error("Stats lookup failed, returning zero rollups", zap.Error(err))
		stats = &models.LedgerStats{}
	}

	rate := s.points.cfg.ExchangeRate
	return models.StatsResponse{
		UserCount:          stats.UserCount,
		TotalEarned:        stats.TotalEarned,
		TotalWithdrawn:     stats.TotalWithdrawn,
		PendingCount:       stats.PendingCount,
		PendingPoints:      stats.PendingPoints,
		PendingAmountUsd:   PointsToUsd(stats.PendingPoints, rate).Round(2),
		WithdrawnAmountUsd: PointsToUsd(stats.TotalWithdrawn, rate).Round(2),
	}, nil
}

// UpdateWithdrawal approves or rejects a pending request. Rejection restores
// the points under the configured policy; a terminal request fails with
// ErrAlreadyProcessed and is never credited twice.
func (s *AdminService) UpdateWithdrawal(ctx context.Context, actor *models.User, requestId int64, status models.WithdrawalStatus) (*store.TransitionResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: status must be approved or rejected, got %q", ErrInvalidInput, status)
	}

	result, err := s.store.TransitionWithdrawal(ctx, store.TransitionParams{
		RequestId: requestId,
		Status:    status,
		Policy:    s.points.cfg.RejectPolicy,
	})
	if err != nil {
		zap.L().Warn("Withdrawal review failed",
			zap.Int64("request_id", requestId),
			zap.String("status", string(status)),
			zap.Int64("admin_id", actor.Id),
			zap.Error(err))
		return nil, mapStoreError(err)
	}

	kind := models.EntryWithdrawalApproved
	if status == models.StatusRejected {
		kind = models.EntryWithdrawalRejected
	}
	s.points.publish(ctx, models.LedgerEntry{
		Kind:      kind,
		UserId:    result.Request.UserId,
		RequestId: requestId,
		Points:    result.Request.Points,
		Reference: fmt.Sprintf("withdrawal:%d:%s", requestId, status),
	})

	zap.L().Info("Withdrawal reviewed",
		zap.Int64("request_id", requestId),
		zap.String("status", string(status)),
		zap.Int64("admin_id", actor.Id),
		zap.Int64("restored_points", result.Restored))
	return result, nil
}

// SetUserPoints overwrites a user's spendable points. Lifetime totals are
// left alone, so the account drifts from earned minus withdrawn.
func (s *AdminService) SetUserPoints(ctx context.Context, actor *models.User, userId, points int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if points < 0 {
		return fmt.Errorf("%w: points cannot be negative, got %d", ErrInvalidInput, points)
	}

	transaction, err := s.store.SetPoints(ctx, userId, points)
	if err != nil {
		return mapStoreError(err)
	}

	if transaction.Amount != 0 {
		s.points.publish(ctx, models.LedgerEntry{
			Kind:      models.EntryAdminAdjustment,
			UserId:    userId,
			Points:    transaction.Amount,
			Reference: "admin-set:" + transaction.Id,
		})
	}

	zap.L().Warn("Admin balance override",
		zap.Int64("admin_id", actor.Id),
		zap.Int64("user_id", userId),
		zap.Int64("old_points", transaction.PointsBefore),
		zap.Int64("new_points", transaction.PointsAfter))
	return nil
}

// SetUserBlocked blocks or unblocks a user. A blocked user cannot withdraw.
func (s *AdminService) SetUserBlocked(ctx context.Context, actor *models.User, userId int64, blocked bool, reason string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if len(reason) > maxContactLength {
		return fmt.Errorf("%w: reason is longer than %d characters", ErrInvalidInput, maxContactLength)
	}
	return mapStoreError(s.store.SetUserBlocked(ctx, userId, blocked, reason))
}

// RecordFraudSignal stores the verdict of an external fraud detector
func (s *AdminService) RecordFraudSignal(ctx context.Context, actor *models.User, userId int64, req models.FraudSignalRequest) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if req.FraudScore < 0 || req.FraudScore > 100 {
		return fmt.Errorf("%w: fraud score must be between 0 and 100, got %d", ErrInvalidInput, req.FraudScore)
	}
	return mapStoreError(s.store.RecordFraudSignal(ctx, userId, store.FraudSignalParams{
		IsVpnUser:     req.IsVpnUser,
		FraudScore:    req.FraudScore,
		LastIpAddress: req.LastIpAddress,
	}))
}

// Reconcile lists accounts whose points differ from earned minus withdrawn.
// It reports only and never corrects.
func (s *AdminService) Reconcile(ctx context.Context, actor *models.User) ([]models.AccountDrift, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	drift, err := s.store.GetAccountDrift(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return drift, nil
}

// SetRole grants or revokes the admin role. This is the only way a user
// becomes an admin and is reserved for operator tooling.
func (s *AdminService) SetRole(ctx context.Context, userId int64, role models.Role) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.store.SetUserRole(ctx, userId, role); err != nil {
		return mapStoreError(err)
	}
	zap.L().Warn("User role changed", zap.Int64("user_id", userId), zap.String("role", string(role)))
	return nil
}
