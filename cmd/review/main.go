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
	"errors"
	"flag"
	"fmt"
	"os"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

type reviewParams struct {
	adminOpenId string
	status      models.WithdrawalStatus
	requestId   int64
	decision    models.WithdrawalStatus
}

func parseAndValidateFlags(args []string) (*reviewParams, error) {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	adminFlag := fs.String("admin", "", "OpenID of the admin performing the review (required)")
	statusFlag := fs.String("status", "pending", "Status to list: pending, approved, rejected or all")
	approveFlag := fs.Int64("approve", 0, "Approve the withdrawal request with this id")
	rejectFlag := fs.Int64("reject", 0, "Reject the withdrawal request with this id")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *adminFlag == "" {
		return nil, fmt.Errorf("missing required flag: --admin")
	}
	if *approveFlag != 0 && *rejectFlag != 0 {
		return nil, fmt.Errorf("--approve and --reject are mutually exclusive")
	}
	if *approveFlag < 0 || *rejectFlag < 0 {
		return nil, fmt.Errorf("request id must be positive")
	}

	params := &reviewParams{adminOpenId: *adminFlag}
	switch {
	case *approveFlag != 0:
		params.requestId, params.decision = *approveFlag, models.StatusApproved
	case *rejectFlag != 0:
		params.requestId, params.decision = *rejectFlag, models.StatusRejected
	}
	if *statusFlag != "all" {
		params.status = models.WithdrawalStatus(*statusFlag)
	}
	return params, nil
}

func printWithdrawals(requests []models.PendingWithdrawal) {
	for i, r := range requests {
		isLast := i == len(requests)-1
		who := r.UserEmail.String
		if who == "" {
			who = r.UserName.String
		}
		fmt.Printf("%s #%-6d user %-6d %-24s %8d pts  %8s USD  %-8s %s\n",
			common.BoxPrefix(isLast),
			r.Id,
			r.UserId,
			who,
			r.Points,
			r.AmountUsd,
			r.Method,
			r.Status)
		fmt.Printf("%s    -> %s (submitted %s)\n",
			common.BoxDetailPrefix(isLast),
			r.MethodDetails,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func fail(logger *zap.Logger, title string, err error) {
	common.PrintHeader(title, common.DefaultWidth)
	fmt.Printf("Error: %v\n", err)
	var blocked *api.AccountBlockedError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Println("The --admin user does not hold the admin role (see cmd/setrole)")
	case errors.Is(err, api.ErrAlreadyProcessed):
		fmt.Println("The request has already been reviewed; no changes were made")
	case errors.As(err, &blocked):
		fmt.Printf("Account blocked: %s\n", blocked.Reason)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	logger.Fatal(title, zap.Error(err))
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	params, err := parseAndValidateFlags(os.Args[1:])
	if err != nil {
		logger.Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	actor, err := services.DbService.GetUserByOpenId(ctx, params.adminOpenId)
	if err != nil {
		logger.Fatal("Failed to look up admin user", zap.String("open_id", params.adminOpenId), zap.Error(err))
	}

	if params.decision != "" {
		result, err := services.AdminService.UpdateWithdrawal(ctx, actor, params.requestId, params.decision)
		if err != nil {
			fail(logger, "REVIEW FAILED", err)
		}

		common.PrintHeader("REVIEW RECORDED", common.DefaultWidth)
		fmt.Printf("Request:   #%d\n", result.Request.Id)
		fmt.Printf("User:      %d\n", result.Request.UserId)
		fmt.Printf("Points:    %d (%s USD)\n", result.Request.Points, result.Request.AmountUsd)
		fmt.Printf("Status:    %s\n", result.Request.Status)
		if result.Restored > 0 {
			fmt.Printf("Restored:  %d points (policy %s)\n", result.Restored, cfg.Ledger.RejectPolicy)
		}
		common.PrintSeparator("=", common.DefaultWidth)

		logger.Info("Withdrawal reviewed",
			zap.Int64("request_id", result.Request.Id),
			zap.String("status", string(result.Request.Status)),
			zap.Int64("restored", result.Restored))
		return
	}

	requests, err := services.AdminService.ListWithdrawals(ctx, actor, params.status)
	if err != nil {
		fail(logger, "LISTING FAILED", err)
	}

	title := "WITHDRAWAL REQUESTS"
	if params.status != "" {
		title = fmt.Sprintf("WITHDRAWAL REQUESTS (%s)", params.status)
	}
	common.PrintHeader(title, common.WideWidth)
	printWithdrawals(requests)

	var points int64
	for _, r := range requests {
		points += r.Points
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d requests, %d points (%s USD)",
		len(requests), points, services.PointsService.AmountUsd(points)), common.WideWidth)
}
