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

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fileFlag := flag.String("file", "", "Path to the ads catalog (defaults to ADS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	adsFile := cfg.Ads.CatalogFile
	if *fileFlag != "" {
		adsFile = *fileFlag
	}

	zap.L().Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	count, err := common.SeedAds(ctx, dbService, adsFile)
	if err != nil {
		zap.L().Fatal("Failed to seed ads", zap.String("file", adsFile), zap.Error(err))
	}

	active, err := dbService.GetActiveAds(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read back ads", zap.Error(err))
	}

	common.PrintHeader("AD CATALOG", common.DefaultWidth)
	for i, ad := range active {
		fmt.Printf("%s %-32s %3d pts  %3ds  %s\n",
			common.BoxPrefix(i == len(active)-1),
			ad.Title,
			ad.RewardPoints,
			ad.Duration,
			ad.AdvertiserName)
	}
	common.PrintFooter(fmt.Sprintf("Seeded %d ads from %s, %d active", count, adsFile, len(active)), common.DefaultWidth)
}
