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

package api

import (
	"context"
	"fmt"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultMaxCreditPoints     = 10
	DefaultMinWithdrawalPoints = 900
	DefaultExchangeRate        = 300
	DefaultMirrorTimeout       = 2 * time.Second

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Mirror receives every committed point movement. Implementations must be
// idempotent on LedgerEntry.Reference.
type Mirror interface {
	Post(ctx context.Context, entry models.LedgerEntry) error
}

// PointsService exposes the user-facing earn and spend operations
type PointsService struct {
	store  store.LedgerStore
	mirror Mirror
	cfg    models.LedgerConfig
	now    func() time.Time
}

// NewPointsService builds the service. A nil mirror disables mirroring and
// zero config values fall back to the defaults above.
func NewPointsService(s store.LedgerStore, cfg models.LedgerConfig, mirror Mirror) *PointsService {
	return &PointsService{
		store:  s,
		mirror: mirror,
		cfg:    withDefaults(cfg),
		now:    time.Now,
	}
}

func withDefaults(cfg models.LedgerConfig) models.LedgerConfig {
	if cfg.MaxCreditPoints <= 0 {
		cfg.MaxCreditPoints = DefaultMaxCreditPoints
	}
	if cfg.MinWithdrawalPoints <= 0 {
		cfg.MinWithdrawalPoints = DefaultMinWithdrawalPoints
	}
	if cfg.ExchangeRate <= 0 {
		cfg.ExchangeRate = DefaultExchangeRate
	}
	if cfg.RejectPolicy == "" {
		cfg.RejectPolicy = models.RejectCreditEarned
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = DefaultMirrorTimeout
	}
	return cfg
}

// Config returns the effective ledger rules
func (s *PointsService) Config() models.LedgerConfig {
	return s.cfg
}

func (s *PointsService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// AmountUsd converts points to a USD string with two decimals
func (s *PointsService) AmountUsd(points int64) string {
	return PointsToUsd(points, s.cfg.ExchangeRate).StringFixed(2)
}

// PointsToUsd divides points by the exchange rate
func PointsToUsd(points, exchangeRate int64) decimal.Decimal {
	return decimal.NewFromInt(points).Div(decimal.NewFromInt(exchangeRate))
}

// startOfDay returns midnight of t's calendar day in loc
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// publish forwards a committed movement to the mirror. The movement is
// already durable, so failures are logged and never surfaced. The post runs
// on the request path and is cut off after MirrorTimeout.
func (s *PointsService) publish(ctx context.Context, entry models.LedgerEntry) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.MirrorTimeout)
	defer cancel()

	if err := s.mirror.Post(ctx, entry); err != nil {
		zap.L().Warn("Failed to mirror ledger entry",
			zap.String("kind", entry.Kind),
			zap.Int64("user_id", entry.UserId),
			zap.String("reference", entry.Reference),
			zap.Error(err))
	}
}
