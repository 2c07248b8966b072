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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ad-rewards-go/internal/models"
)

func Load() (*models.Config, error) {
	durations := map[string]time.Duration{
		"DB_CONN_MAX_LIFETIME":    5 * time.Minute,
		"DB_CONN_MAX_IDLE_TIME":   30 * time.Second,
		"DB_PING_TIMEOUT":         5 * time.Second,
		"DB_BUSY_TIMEOUT":         5 * time.Second,
		"SERVER_READ_TIMEOUT":     15 * time.Second,
		"SERVER_WRITE_TIMEOUT":    15 * time.Second,
		"SERVER_SHUTDOWN_TIMEOUT": 10 * time.Second,
		"HOUSEKEEPING_PERIOD":     10 * time.Minute,
		"JWT_TTL":                 24 * time.Hour,
		"FORMANCE_TIMEOUT":        10 * time.Second,
		"LEDGER_MIRROR_TIMEOUT":   2 * time.Second,
	}
	for key, defaultValue := range durations {
		value, err := getEnvDuration(key, defaultValue)
		if err != nil {
			return nil, err
		}
		durations[key] = value
	}

	rejectPolicy := models.RejectPolicy(getEnvString("LEDGER_REJECT_POLICY", string(models.RejectCreditEarned)))
	if !rejectPolicy.Valid() {
		return nil, fmt.Errorf("invalid LEDGER_REJECT_POLICY: %q (want %s or %s)",
			rejectPolicy, models.RejectCreditEarned, models.RejectReverseWithdrawn)
	}

	location, err := time.LoadLocation(getEnvString("LEDGER_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE: %w", err)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "rewards.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
			ConnMaxIdleTime: durations["DB_CONN_MAX_IDLE_TIME"],
			PingTimeout:     durations["DB_PING_TIMEOUT"],
			BusyTimeout:     durations["DB_BUSY_TIMEOUT"],
		},
		Ledger: models.LedgerConfig{
			MaxCreditPoints:     getEnvInt64("LEDGER_MAX_CREDIT_POINTS", 10),
			MinWithdrawalPoints: getEnvInt64("LEDGER_MIN_WITHDRAWAL_POINTS", 900),
			ExchangeRate:        getEnvInt64("LEDGER_EXCHANGE_RATE", 300),
			RejectPolicy:        rejectPolicy,
			Location:            location,
			MirrorTimeout:       durations["LEDGER_MIRROR_TIMEOUT"],
		},
		Server: models.ServerConfig{
			Addr:               getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:        durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:       durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout:    durations["SERVER_SHUTDOWN_TIMEOUT"],
			AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CreditRatePerMin:   getEnvInt("CREDIT_RATE_PER_MIN", 6),
			CreditBurst:        getEnvInt("CREDIT_BURST", 3),
			HousekeepingPeriod: durations["HOUSEKEEPING_PERIOD"],
		},
		Auth: models.AuthConfig{
			JwtSecret: os.Getenv("JWT_SECRET"),
			Issuer:    getEnvString("JWT_ISSUER", "ad-rewards"),
			TokenTtl:  durations["JWT_TTL"],
		},
		Formance: models.FormanceConfig{
			StackURL:     os.Getenv("FORMANCE_STACK_URL"),
			ClientID:     os.Getenv("FORMANCE_CLIENT_ID"),
			ClientSecret: os.Getenv("FORMANCE_CLIENT_SECRET"),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "ad-rewards"),
			Timeout:      durations["FORMANCE_TIMEOUT"],
		},
		Ads: models.AdsConfig{
			CatalogFile: getEnvString("ADS_FILE", "ads.yaml"),
			SeedOnStart: getEnvBool("ADS_SEED_ON_START", false),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
