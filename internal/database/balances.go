package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// GetOrCreateAccount returns the user's points account, persisting a zero
// account the first time it is read.
func (s *Service) GetOrCreateAccount(ctx context.Context, userId int64) (*models.PointsAccount, error) {
	zap.L().Debug("Getting points account", zap.Int64("user_id", userId))

	var account *models.PointsAccount
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		account, err = s.subledger.EnsureAccount(ctx, tx, userId, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreditPoints adds points to total_earned and the spendable balance. When
// params.RecordAdView is set the ad view is written in the same transaction.
func (s *Service) CreditPoints(ctx context.Context, params store.CreditParams) (*models.PointTransaction, error) {
	if params.Points <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", params.Points)
	}
	if params.Type == "" {
		params.Type = models.TxTypeAdView
	}

	zap.L().Info("Crediting points",
		zap.Int64("user_id", params.UserId),
		zap.Int64("points", params.Points),
		zap.String("type", params.Type),
		zap.String("ad_id", params.AdId))

	now := s.now()
	var transaction *models.PointTransaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		account, err := s.subledger.EnsureAccount(ctx, tx, params.UserId, now)
		if err != nil {
			return err
		}

		// Update account balance (with optimistic locking)
		result, err := tx.ExecContext(ctx, queryCreditAccount,
			params.Points, params.Points, now, params.UserId, account.Version)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
		}

		reference := params.Reference
		if reference == "" && params.RecordAdView {
			reference = "ad:" + params.AdId
		}
		transaction, err = s.subledger.RecordMovement(ctx, tx, MovementParams{
			UserId:       params.UserId,
			Type:         params.Type,
			Amount:       params.Points,
			PointsBefore: account.Points,
			Reference:    reference,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		if params.RecordAdView {
			if _, err := tx.ExecContext(ctx, queryInsertAdView, params.UserId, params.AdId, now); err != nil {
				return fmt.Errorf("failed to record ad view: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Points credited",
		zap.String("transaction_id", transaction.Id),
		zap.Int64("user_id", params.UserId),
		zap.Int64("old_points", transaction.PointsBefore),
		zap.Int64("new_points", transaction.PointsAfter))
	return transaction, nil
}

// SetPoints overwrites the spendable balance without touching the lifetime
// totals. The audit row records the signed difference.
func (s *Service) SetPoints(ctx context.Context, userId int64, points int64) (*models.PointTransaction, error) {
	if points < 0 {
		return nil, fmt.Errorf("points cannot be negative, got %d", points)
	}

	now := s.now()
	var transaction *models.PointTransaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		account, err := s.subledger.EnsureAccount(ctx, tx, userId, now)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, querySetAccountPoints, points, now, userId, account.Version)
		if err != nil {
			return fmt.Errorf("failed to set points: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("points override failed - %w", store.ErrConcurrentModification)
		}

		transaction, err = s.subledger.RecordMovement(ctx, tx, MovementParams{
			UserId:       userId,
			Type:         models.TxTypeAdminSet,
			Amount:       points - account.Points,
			PointsBefore: account.Points,
			Reference:    "admin override",
			CreatedAt:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Warn("Points overridden by admin",
		zap.Int64("user_id", userId),
		zap.Int64("old_points", transaction.PointsBefore),
		zap.Int64("new_points", transaction.PointsAfter))
	return transaction, nil
}

// GetAccountDrift lists accounts whose balance no longer equals
// total_earned - total_withdrawn, typically after an admin override.
func (s *Service) GetAccountDrift(ctx context.Context) ([]models.AccountDrift, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAccountDrift)
	if err != nil {
		return nil, fmt.Errorf("failed to query account drift: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var drifts []models.AccountDrift
	for rows.Next() {
		var d models.AccountDrift
		if err := rows.Scan(&d.UserId, &d.Points, &d.TotalEarned, &d.TotalWithdrawn); err != nil {
			return nil, fmt.Errorf("failed to scan account drift: %w", err)
		}
		drifts = append(drifts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account drift rows: %w", err)
	}
	return drifts, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
