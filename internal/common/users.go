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

package common

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id     int64
	OpenId string
	Name   string
	Email  string
	Role   string
}

// InitializeUsers retrieves users based on an optional OpenID filter.
// If openIdFilter is provided, returns the single user with that identity.
// If openIdFilter is empty, returns all users.
func InitializeUsers(ctx context.Context, dbService store.LedgerStore, openIdFilter string, logger *zap.Logger) ([]UserInfo, error) {
	var users []UserInfo

	if openIdFilter != "" {
		logger.Info("Looking up user by open id", zap.String("open_id", openIdFilter))
		user, err := dbService.GetUserByOpenId(ctx, openIdFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, UserInfo{
			Id:     user.Id,
			OpenId: user.OpenId,
			Name:   user.Name.String,
			Email:  user.Email.String,
			Role:   string(user.Role),
		})
	} else {
		allUsers, err := dbService.GetUsersWithPoints(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range allUsers {
			users = append(users, UserInfo{
				Id:     u.Id,
				OpenId: u.OpenId,
				Name:   u.Name.String,
				Email:  u.Email.String,
				Role:   string(u.Role),
			})
		}
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
