package api

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// GetBalance returns the user's account, creating a zero account on first
// read. Storage failures degrade to a zero balance.
func (s *PointsService) GetBalance(ctx context.Context, userId int64) models.PointsAccount {
	account, err := s.store.GetOrCreateAccount(ctx, userId)
	if err != nil {
		zap.L().Error("Balance lookup failed, returning zero balance",
			zap.Int64("user_id", userId),
			zap.Error(err))
		return models.PointsAccount{UserId: userId}
	}
	return *account
}

// CreditForAdView credits points for one completed ad and records the view.
// Duplicate ad ids are not deduplicated.
func (s *PointsService) CreditForAdView(ctx context.Context, userId int64, req models.CreditRequest) error {
	req, err := validateCredit(req, s.cfg.MaxCreditPoints)
	if err != nil {
		return err
	}

	transaction, err := s.store.CreditPoints(ctx, store.CreditParams{
		UserId:       userId,
		Points:       req.Points,
		AdId:         req.AdId,
		RecordAdView: true,
		Type:         models.TxTypeAdView,
	})
	if err != nil {
		zap.L().Error("Ad view credit failed",
			zap.Int64("user_id", userId),
			zap.Int64("points", req.Points),
			zap.String("ad_id", req.AdId),
			zap.Error(err))
		return mapStoreError(err)
	}

	s.publish(ctx, models.LedgerEntry{
		Kind:      models.EntryAdView,
		UserId:    userId,
		Points:    req.Points,
		Reference: "ad-view:" + transaction.Id,
	})
	return nil
}

// GetAdViewCounts returns lifetime and today's ad views. "Today" starts at
// midnight in the configured ledger timezone.
func (s *PointsService) GetAdViewCounts(ctx context.Context, userId int64) models.AdViewCounts {
	var counts models.AdViewCounts

	total, err := s.store.CountAdViews(ctx, userId)
	if err != nil {
		zap.L().Error("Ad view count failed, returning zero", zap.Int64("user_id", userId), zap.Error(err))
		return counts
	}
	counts.Total = total

	today, err := s.store.CountAdViewsSince(ctx, userId, startOfDay(s.now(), s.cfg.Location))
	if err != nil {
		zap.L().Error("Today's ad view count failed, returning zero", zap.Int64("user_id", userId), zap.Error(err))
		return counts
	}
	counts.Today = today
	return counts
}

// SubmitWithdrawal validates the request and records a pending request with
// the points already deducted. The store applies the account gates in order
// (blocked, VPN, balance) inside the deducting transaction. It returns the
// new request id.
func (s *PointsService) SubmitWithdrawal(ctx context.Context, userId int64, req models.SubmitWithdrawalRequest) (int64, error) {
	req, err := validateWithdrawal(req, s.cfg.MinWithdrawalPoints)
	if err != nil {
		return 0, err
	}

	request, err := s.store.SubmitWithdrawal(ctx, store.WithdrawalParams{
		UserId:        userId,
		Points:        req.Points,
		AmountUsd:     s.AmountUsd(req.Points),
		Method:        req.Method,
		MethodDetails: req.ContactInfo,
	})
	if err != nil {
		zap.L().Warn("Withdrawal submission failed",
			zap.Int64("user_id", userId),
			zap.Int64("points", req.Points),
			zap.Error(err))
		return 0, mapStoreError(err)
	}

	s.publish(ctx, models.LedgerEntry{
		Kind:      models.EntryWithdrawalPending,
		UserId:    userId,
		RequestId: request.Id,
		Points:    request.Points,
		Reference: fmt.Sprintf("withdrawal:%d", request.Id),
	})

	zap.L().Info("Withdrawal submitted",
		zap.Int64("request_id", request.Id),
		zap.Int64("user_id", userId),
		zap.Int64("points", request.Points),
		zap.String("amount_usd", request.AmountUsd),
		zap.String("method", string(request.Method)))
	return request.Id, nil
}

// ListWithdrawals returns the user's own requests, newest first
func (s *PointsService) ListWithdrawals(ctx context.Context, userId int64) []models.WithdrawalRequest {
	requests, err := s.store.GetUserWithdrawals(ctx, userId)
	if err != nil {
		zap.L().Error("Withdrawal listing failed, returning empty list", zap.Int64("user_id", userId), zap.Error(err))
		return []models.WithdrawalRequest{}
	}
	return requests
}

// GetHistory returns a page of point movements. limit defaults to
// DefaultHistoryLimit and is capped at MaxHistoryLimit.
func (s *PointsService) GetHistory(ctx context.Context, userId int64, limit, offset int) []models.PointTransaction {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	history, err := s.store.GetTransactionHistory(ctx, userId, limit, offset)
	if err != nil {
		zap.L().Error("History lookup failed, returning empty list", zap.Int64("user_id", userId), zap.Error(err))
		return []models.PointTransaction{}
	}
	return history
}

// ListAds returns the active ad catalog
func (s *PointsService) ListAds(ctx context.Context) []models.Ad {
	ads, err := s.store.GetActiveAds(ctx)
	if err != nil {
		zap.L().Error("Ad catalog lookup failed, returning empty list", zap.Error(err))
		return []models.Ad{}
	}
	return ads
}

// SignIn records an authenticated identity, creating the user on first
// sight and refreshing profile fields and last sign-in afterwards. Role and
// block state are never changed here.
func (s *PointsService) SignIn(ctx context.Context, params store.UpsertUserParams) (*models.User, error) {
	if params.OpenId == "" {
		return nil, fmt.Errorf("%w: identity has no subject", ErrUnauthorized)
	}
	user, err := s.store.UpsertUser(ctx, params)
	if err != nil {
		zap.L().Error("User sign-in failed", zap.String("open_id", params.OpenId), zap.Error(err))
		return nil, mapStoreError(err)
	}
	return user, nil
}
