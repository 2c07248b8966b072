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
	"flag"
	"fmt"

	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	openIdFlag := flag.String("openid", "", "OpenID subject of the user (required)")
	nameFlag := flag.String("name", "", "Display name (optional)")
	emailFlag := flag.String("email", "", "Email address (optional)")
	loginFlag := flag.String("login", "dev", "Login method recorded for the user")
	flag.Parse()

	if *openIdFlag == "" {
		zap.L().Fatal("Missing required flag: --openid")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	auth, err := server.NewAuthenticator(cfg.Auth)
	if err != nil {
		zap.L().Fatal("Failed to initialize authenticator", zap.Error(err))
	}

	token, err := auth.IssueToken(*openIdFlag, *nameFlag, *emailFlag, *loginFlag)
	if err != nil {
		zap.L().Fatal("Failed to sign token", zap.Error(err))
	}

	zap.L().Info("Issued development token",
		zap.String("open_id", *openIdFlag),
		zap.Duration("ttl", cfg.Auth.TokenTtl))
	fmt.Println(token)
}
