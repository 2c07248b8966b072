package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type AdConfig struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	ImageUrl       string `yaml:"image_url"`
	VideoUrl       string `yaml:"video_url"`
	AdvertiserName string `yaml:"advertiser"`
	RewardPoints   int64  `yaml:"reward_points"`
	Duration       int    `yaml:"duration_seconds"`
	Active         *bool  `yaml:"active"`
	TargetCountry  string `yaml:"target_country"`
}

type AdsConfig struct {
	Ads []AdConfig `yaml:"ads"`
}

// LoadAdsCatalog reads the ad catalog file. Relative paths resolve against
// the working directory; ads without an explicit active flag are active.
func LoadAdsCatalog(adsFile string) ([]store.UpsertAdParams, error) {
	var adsPath string
	if filepath.IsAbs(adsFile) {
		adsPath = adsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		adsPath = filepath.Join(wd, adsFile)
	}

	data, err := os.ReadFile(adsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", adsFile, err)
	}

	var config AdsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", adsFile, err)
	}

	params := make([]store.UpsertAdParams, 0, len(config.Ads))
	for i, ad := range config.Ads {
		if ad.Title == "" {
			return nil, fmt.Errorf("ad at index %d missing title", i)
		}
		if ad.RewardPoints < 1 {
			return nil, fmt.Errorf("ad %q must reward at least one point", ad.Title)
		}
		if ad.Duration < 0 {
			return nil, fmt.Errorf("ad %q has a negative duration", ad.Title)
		}

		active := true
		if ad.Active != nil {
			active = *ad.Active
		}
		params = append(params, store.UpsertAdParams{
			Title:          ad.Title,
			Description:    ad.Description,
			ImageUrl:       ad.ImageUrl,
			VideoUrl:       ad.VideoUrl,
			AdvertiserName: ad.AdvertiserName,
			RewardPoints:   ad.RewardPoints,
			Duration:       ad.Duration,
			IsActive:       active,
			TargetCountry:  ad.TargetCountry,
		})
	}

	return params, nil
}

// SeedAds upserts every catalog entry and returns how many were written
func SeedAds(ctx context.Context, s store.LedgerStore, adsFile string) (int, error) {
	ads, err := LoadAdsCatalog(adsFile)
	if err != nil {
		return 0, err
	}

	for _, params := range ads {
		ad, err := s.UpsertAd(ctx, params)
		if err != nil {
			return 0, fmt.Errorf("failed to seed ad %q: %w", params.Title, err)
		}
		zap.L().Debug("Ad seeded", zap.Int64("ad_id", ad.Id), zap.String("title", ad.Title))
	}
	return len(ads), nil
}
