package database

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

// GetStats returns the admin rollups across all users.
func (s *Service) GetStats(ctx context.Context) (*models.LedgerStats, error) {
	var stats models.LedgerStats

	err := s.db.QueryRowContext(ctx, queryGetLedgerTotals).Scan(&stats.UserCount, &stats.TotalEarned, &stats.TotalWithdrawn)
	if err != nil {
		zap.L().Error("Failed to query ledger totals", zap.Error(err))
		return nil, fmt.Errorf("unable to query ledger totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, queryGetPendingTotals).Scan(&stats.PendingCount, &stats.PendingPoints)
	if err != nil {
		zap.L().Error("Failed to query pending totals", zap.Error(err))
		return nil, fmt.Errorf("unable to query pending totals: %w", err)
	}

	return &stats, nil
}
