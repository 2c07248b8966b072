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

package main

import (
	"context"
	"flag"
	"fmt"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/formance"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers       int
	usersWithPoints  int
	mirrorMismatches int
	totalPoints      int64
}

type reportContext struct {
	dbService    store.LedgerStore
	mirror       *formance.Service
	exchangeRate int64
	logger       *zap.Logger
}

func printUserHeader(user common.UserInfo) {
	fmt.Printf("\n┌─ User: %s (%s)\n", displayName(user), user.Email)
	fmt.Printf("│  ID: %d  OpenID: %s  Role: %s\n", user.Id, user.OpenId, user.Role)
	common.PrintBoxSeparator(78)
}

func displayName(user common.UserInfo) string {
	if user.Name == "" {
		return "(unnamed)"
	}
	return user.Name
}

func processUser(ctx context.Context, rc reportContext, user common.UserInfo) (*models.PointsAccount, error) {
	account, err := rc.dbService.GetOrCreateAccount(ctx, user.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	views, err := rc.dbService.CountAdViews(ctx, user.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to count ad views: %w", err)
	}

	printUserHeader(user)
	fmt.Printf("%s %-15s: %12d (%s USD)\n", common.BoxPrefix(false), "points", account.Points,
		api.PointsToUsd(account.Points, rc.exchangeRate).StringFixed(2))
	fmt.Printf("%s %-15s: %12d\n", common.BoxPrefix(false), "total earned", account.TotalEarned)
	fmt.Printf("%s %-15s: %12d\n", common.BoxPrefix(false), "total withdrawn", account.TotalWithdrawn)

	last := rc.mirror == nil
	fmt.Printf("%s %-15s: %12d (v%d, updated: %s)\n", common.BoxPrefix(last), "ad views", views,
		account.Version, account.UpdatedAt.Format("2006-01-02 15:04:05"))

	return account, nil
}

func compareMirror(ctx context.Context, rc reportContext, userId, points int64) bool {
	mirrored, err := rc.mirror.GetUserPoints(ctx, userId)
	if err != nil {
		rc.logger.Warn("Failed to read mirrored balance", zap.Int64("user_id", userId), zap.Error(err))
		fmt.Printf("%s %-15s: %12s\n", common.BoxPrefix(true), "mirror", "unavailable")
		return false
	}
	status := "in sync"
	if mirrored != points {
		status = fmt.Sprintf("MISMATCH (%+d)", points-mirrored)
	}
	fmt.Printf("%s %-15s: %12d %s\n", common.BoxPrefix(true), "mirror", mirrored, status)
	return mirrored != points
}

func processUsersAndGenerateReport(ctx context.Context, rc reportContext, users []common.UserInfo) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		account, err := processUser(ctx, rc, user)
		if err != nil {
			rc.logger.Error("Failed to process user",
				zap.Int64("user_id", user.Id),
				zap.String("open_id", user.OpenId),
				zap.Error(err))
			continue
		}

		if account.Points > 0 {
			stats.usersWithPoints++
			stats.totalPoints += account.Points
		}
		if rc.mirror != nil && compareMirror(ctx, rc, user.Id, account.Points) {
			stats.mirrorMismatches++
		}
	}

	return stats
}

func printRollups(ctx context.Context, rc reportContext) {
	rollups, err := rc.dbService.GetStats(ctx)
	if err != nil {
		rc.logger.Error("Failed to compute rollups", zap.Error(err))
		return
	}

	common.PrintHeader("LEDGER ROLLUPS", common.DefaultWidth)
	fmt.Printf("Users:            %d\n", rollups.UserCount)
	fmt.Printf("Total earned:     %d\n", rollups.TotalEarned)
	fmt.Printf("Total withdrawn:  %d (%s USD)\n", rollups.TotalWithdrawn,
		api.PointsToUsd(rollups.TotalWithdrawn, rc.exchangeRate).StringFixed(2))
	fmt.Printf("Pending requests: %d (%d points, %s USD)\n", rollups.PendingCount, rollups.PendingPoints,
		api.PointsToUsd(rollups.PendingPoints, rc.exchangeRate).StringFixed(2))
}

// printDrift lists accounts whose points no longer equal earned minus
// withdrawn. Admin overrides are the only expected source.
func printDrift(ctx context.Context, rc reportContext) int {
	drift, err := rc.dbService.GetAccountDrift(ctx)
	if err != nil {
		rc.logger.Error("Failed to check account drift", zap.Error(err))
		return 0
	}

	common.PrintHeader("RECONCILIATION", common.DefaultWidth)
	if len(drift) == 0 {
		fmt.Println("All accounts satisfy points = earned - withdrawn")
		return 0
	}
	for i, d := range drift {
		fmt.Printf("%s user %-8d points=%-10d expected=%-10d delta=%+d\n",
			common.BoxPrefix(i == len(drift)-1), d.UserId, d.Points, d.Expected(), d.Points-d.Expected())
	}
	return len(drift)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	openIdFlag := flag.String("openid", "", "Filter by specific user OpenID (optional)")
	reconcileFlag := flag.Bool("reconcile", false, "Report accounts whose points differ from earned - withdrawn")
	mirrorFlag := flag.Bool("mirror", false, "Compare each balance with the Formance mirror")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	rc := reportContext{dbService: dbService, exchangeRate: cfg.Ledger.ExchangeRate, logger: logger}
	if *mirrorFlag {
		if !cfg.Formance.Enabled() {
			logger.Fatal("Mirror comparison requested but FORMANCE_STACK_URL is not set")
		}
		mirror, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			logger.Fatal("Failed to connect to Formance", zap.Error(err))
		}
		defer mirror.Close()
		rc.mirror = mirror
	}

	users, err := common.InitializeUsers(ctx, dbService, *openIdFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)
	stats := processUsersAndGenerateReport(ctx, rc, users)

	if *openIdFlag == "" {
		printRollups(ctx, rc)
	}
	drifted := 0
	if *reconcileFlag {
		drifted = printDrift(ctx, rc)
	}

	summary := fmt.Sprintf("SUMMARY: %d users with points (%d points outstanding across %d users queried)",
		stats.usersWithPoints, stats.totalPoints, stats.totalUsers)
	if rc.mirror != nil {
		summary += fmt.Sprintf(", %d mirror mismatches", stats.mirrorMismatches)
	}
	if *reconcileFlag {
		summary += fmt.Sprintf(", %d drifted accounts", drifted)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_points", stats.usersWithPoints),
		zap.Int64("total_points", stats.totalPoints),
		zap.Int("drifted_accounts", drifted))
}
