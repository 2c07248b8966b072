package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

func (s *Service) CountAdViews(ctx context.Context, userId int64) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, queryCountAdViews, userId).Scan(&count); err != nil {
		zap.L().Error("Failed to count ad views", zap.Int64("user_id", userId), zap.Error(err))
		return 0, fmt.Errorf("unable to count ad views: %w", err)
	}
	return count, nil
}

// CountAdViewsSince counts views at or after since. Timestamps are stored in
// UTC, so since is normalized before binding.
func (s *Service) CountAdViewsSince(ctx context.Context, userId int64, since time.Time) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, queryCountAdViewsSince, userId, since.UTC()).Scan(&count); err != nil {
		zap.L().Error("Failed to count ad views since",
			zap.Int64("user_id", userId),
			zap.Time("since", since),
			zap.Error(err))
		return 0, fmt.Errorf("unable to count ad views: %w", err)
	}
	return count, nil
}
