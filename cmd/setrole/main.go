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

	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

func validateRole(role string) (models.Role, error) {
	switch models.Role(role) {
	case models.RoleUser, models.RoleAdmin:
		return models.Role(role), nil
	}
	return "", fmt.Errorf("role must be %q or %q, got %q", models.RoleUser, models.RoleAdmin, role)
}

// Role changes are only reachable from this tool. No HTTP route grants admin.
func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	openIdFlag := flag.String("openid", "", "OpenID of the user to update (required)")
	roleFlag := flag.String("role", string(models.RoleAdmin), "Role to assign: user or admin")
	flag.Parse()

	if *openIdFlag == "" {
		logger.Fatal("Missing required flag: --openid")
	}
	role, err := validateRole(*roleFlag)
	if err != nil {
		logger.Fatal("Invalid role", zap.Error(err))
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

	user, err := services.DbService.GetUserByOpenId(ctx, *openIdFlag)
	if err != nil {
		logger.Fatal("User not found; the user must sign in once before a role can be assigned",
			zap.String("open_id", *openIdFlag), zap.Error(err))
	}

	if user.Role == role {
		logger.Info("Role unchanged", zap.Int64("user_id", user.Id), zap.String("role", string(role)))
		return
	}

	if err := services.AdminService.SetRole(ctx, user.Id, role); err != nil {
		logger.Fatal("Failed to set role", zap.Int64("user_id", user.Id), zap.Error(err))
	}

	common.PrintHeader("ROLE UPDATED", common.DefaultWidth)
	fmt.Printf("User:   %d (%s)\n", user.Id, user.OpenId)
	fmt.Printf("Role:   %s -> %s\n", user.Role, role)
	common.PrintSeparator("=", common.DefaultWidth)

	logger.Info("Role updated",
		zap.Int64("user_id", user.Id),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)))
}
