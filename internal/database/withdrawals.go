/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// SubmitWithdrawal deducts the requested points and records a pending
// request in one transaction. The deduction is a conditional update, so two
// concurrent submissions can never both spend the same balance. The block and
// VPN flags are read under the same write lock, so a block committed before
// the deduction always stops it.
func (s *Service) SubmitWithdrawal(ctx context.Context, params store.WithdrawalParams) (*models.WithdrawalRequest, error) {
	if params.Points <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %d", params.Points)
	}

	zap.L().Info("Submitting withdrawal",
		zap.Int64("user_id", params.UserId),
		zap.Int64("points", params.Points),
		zap.String("amount_usd", params.AmountUsd),
		zap.String("method", string(params.Method)))

	now := s.now()
	request := &models.WithdrawalRequest{
		UserId:        params.UserId,
		Points:        params.Points,
		AmountUsd:     params.AmountUsd,
		Method:        params.Method,
		MethodDetails: params.MethodDetails,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.subledger.EnsureAccount(ctx, tx, params.UserId, now); err != nil {
			return err
		}
		if err := checkWithdrawalGates(ctx, tx, params.UserId); err != nil {
			return err
		}

		var pointsAfter int64
		err := tx.QueryRowContext(ctx, queryDebitAccountIfSufficient,
			params.Points, params.Points, now, params.UserId, params.Points).Scan(&pointsAfter)
		if isNoRows(err) {
			return fmt.Errorf("%w: user %d requested %d", store.ErrInsufficientPoints, params.UserId, params.Points)
		} else if err != nil {
			return fmt.Errorf("failed to deduct points: %w", err)
		}

		result, err := tx.ExecContext(ctx, queryInsertWithdrawal,
			params.UserId, params.Points, params.AmountUsd, string(params.Method), params.MethodDetails, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert withdrawal request: %w", err)
		}
		request.Id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read withdrawal request id: %w", err)
		}

		_, err = s.subledger.RecordMovement(ctx, tx, MovementParams{
			UserId:       params.UserId,
			Type:         models.TxTypeWithdrawal,
			Amount:       -params.Points,
			PointsBefore: pointsAfter + params.Points,
			Reference:    withdrawalReference(request.Id),
			CreatedAt:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal request recorded",
		zap.Int64("request_id", request.Id),
		zap.Int64("user_id", params.UserId),
		zap.Int64("points", params.Points))
	return request, nil
}

// checkWithdrawalGates refuses blocked accounts first, then VPN users.
func checkWithdrawalGates(ctx context.Context, tx *sql.Tx, userId int64) error {
	var (
		blocked, vpn bool
		reason       sql.NullString
	)
	err := tx.QueryRowContext(ctx, queryGetWithdrawalGates, userId).Scan(&blocked, &reason, &vpn)
	if isNoRows(err) {
		return fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
	} else if err != nil {
		return fmt.Errorf("failed to read account flags: %w", err)
	}
	if blocked {
		return &store.AccountBlockedError{Reason: reason.String}
	}
	if vpn {
		return store.ErrVpnNotAllowed
	}
	return nil
}

// TransitionWithdrawal moves a pending request to approved or rejected.
// Rejection returns the points inside the same transaction; because only a
// pending row can be updated, a request is restored at most once.
func (s *Service) TransitionWithdrawal(ctx context.Context, params store.TransitionParams) (*store.TransitionResult, error) {
	if !params.Status.Terminal() {
		return nil, fmt.Errorf("invalid target status %q", params.Status)
	}
	if params.Policy == "" {
		params.Policy = models.RejectCreditEarned
	}

	now := s.now()
	result := &store.TransitionResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, queryTransitionWithdrawal, string(params.Status), now, now, params.RequestId)
		if err != nil {
			return fmt.Errorf("failed to update withdrawal status: %w", err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			var current string
			err := tx.QueryRowContext(ctx, queryGetWithdrawalStatus, params.RequestId).Scan(&current)
			if isNoRows(err) {
				return fmt.Errorf("%w: %d", store.ErrWithdrawalNotFound, params.RequestId)
			} else if err != nil {
				return fmt.Errorf("failed to read withdrawal status: %w", err)
			}
			return fmt.Errorf("%w: request %d is %s", store.ErrAlreadyProcessed, params.RequestId, current)
		}

		request, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawalById, params.RequestId))
		if err != nil {
			return fmt.Errorf("failed to reload withdrawal request: %w", err)
		}
		result.Request = request

		if params.Status != models.StatusRejected {
			return nil
		}

		restoreQuery := queryRestoreCreditEarned
		if params.Policy == models.RejectReverseWithdrawn {
			restoreQuery = queryRestoreReverseWithdrawn
		}
		var pointsAfter int64
		err = tx.QueryRowContext(ctx, restoreQuery, request.Points, request.Points, now, request.UserId).Scan(&pointsAfter)
		if err != nil {
			return fmt.Errorf("failed to restore points: %w", err)
		}

		_, err = s.subledger.RecordMovement(ctx, tx, MovementParams{
			UserId:       request.UserId,
			Type:         models.TxTypeWithdrawalRejected,
			Amount:       request.Points,
			PointsBefore: pointsAfter - request.Points,
			Reference:    withdrawalReference(request.Id),
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}
		result.Restored = request.Points
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal request processed",
		zap.Int64("request_id", params.RequestId),
		zap.String("status", string(params.Status)),
		zap.String("policy", string(params.Policy)),
		zap.Int64("restored_points", result.Restored))
	return result, nil
}

func (s *Service) GetWithdrawalById(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	request, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawalById, requestId))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %d", store.ErrWithdrawalNotFound, requestId)
	} else if err != nil {
		return nil, fmt.Errorf("unable to query withdrawal request: %w", err)
	}
	return request, nil
}

func (s *Service) GetUserWithdrawals(ctx context.Context, userId int64) ([]models.WithdrawalRequest, error) {
	zap.L().Debug("Querying user withdrawals", zap.Int64("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserWithdrawals, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawals: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var requests []models.WithdrawalRequest
	for rows.Next() {
		request, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		requests = append(requests, *request)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during withdrawal row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return requests, nil
}

// GetWithdrawalsByStatus lists requests joined with requester identity. An
// empty status lists every request.
func (s *Service) GetWithdrawalsByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.PendingWithdrawal, error) {
	rows, err := s.db.QueryContext(ctx, queryGetWithdrawalsWithUser, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawals: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var requests []models.PendingWithdrawal
	for rows.Next() {
		var p models.PendingWithdrawal
		err := rows.Scan(&p.Id, &p.UserId, &p.Points, &p.AmountUsd, &p.Method, &p.MethodDetails, &p.Status,
			&p.CreatedAt, &p.UpdatedAt, &p.ProcessedAt, &p.UserName, &p.UserEmail)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		requests = append(requests, p)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during withdrawal row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}

	zap.L().Debug("Retrieved withdrawals", zap.String("status", string(status)), zap.Int("count", len(requests)))
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.Id, &w.UserId, &w.Points, &w.AmountUsd, &w.Method, &w.MethodDetails, &w.Status,
		&w.CreatedAt, &w.UpdatedAt, &w.ProcessedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func withdrawalReference(requestId int64) string {
	return fmt.Sprintf("withdrawal:%d", requestId)
}
