package database

import (
	"context"
	"database/sql"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// UpsertAd inserts a catalog entry or refreshes the one with the same title.
func (s *Service) UpsertAd(ctx context.Context, params store.UpsertAdParams) (*models.Ad, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("ad title cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, queryUpsertAd,
		params.Title, params.Description, params.ImageUrl, params.VideoUrl, params.AdvertiserName,
		params.RewardPoints, params.Duration, params.IsActive, params.TargetCountry, s.now())
	if err != nil {
		return nil, fmt.Errorf("unable to upsert ad %q: %w", params.Title, err)
	}

	ad, err := scanAd(s.db.QueryRowContext(ctx, queryGetAdByTitle, params.Title))
	if err != nil {
		return nil, fmt.Errorf("unable to reload ad %q: %w", params.Title, err)
	}
	return ad, nil
}

func (s *Service) GetActiveAds(ctx context.Context) ([]models.Ad, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveAds)
	if err != nil {
		return nil, fmt.Errorf("unable to query ads: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var ads []models.Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan ad row: %w", err)
		}
		ads = append(ads, *ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ad rows: %w", err)
	}
	return ads, nil
}

func scanAd(row rowScanner) (*models.Ad, error) {
	var ad models.Ad
	err := row.Scan(&ad.Id, &ad.Title, &ad.Description, &ad.ImageUrl, &ad.VideoUrl, &ad.AdvertiserName,
		&ad.RewardPoints, &ad.Duration, &ad.IsActive, &ad.TargetCountry, &ad.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}
