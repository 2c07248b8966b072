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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// UpsertUser creates the user on first authentication and refreshes the
// profile and last sign-in afterwards. Role and block fields are never
// touched here.
func (s *Service) UpsertUser(ctx context.Context, params store.UpsertUserParams) (*models.User, error) {
	if params.OpenId == "" {
		return nil, fmt.Errorf("open id cannot be empty")
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx, queryUpsertUser,
		params.OpenId, nullString(params.Name), nullString(params.Email), nullString(params.LoginMethod),
		now, now, now)
	if err != nil {
		zap.L().Error("Failed to upsert user", zap.String("open_id", params.OpenId), zap.Error(err))
		return nil, fmt.Errorf("unable to upsert user: %w", err)
	}

	return s.GetUserByOpenId(ctx, params.OpenId)
}

func (s *Service) GetUserById(ctx context.Context, userId int64) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.Int64("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
	} else if err != nil {
		zap.L().Error("Failed to query user by ID", zap.Int64("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByOpenId(ctx context.Context, openId string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByOpenId, openId))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, openId)
	} else if err != nil {
		zap.L().Error("Failed to query user by open id", zap.String("open_id", openId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by open id: %w", err)
	}
	return user, nil
}

// GetUsersWithPoints lists every user with balance and ad view count.
// Users that never touched points report zeros.
func (s *Service) GetUsersWithPoints(ctx context.Context) ([]models.UserWithPoints, error) {
	rows, err := s.db.QueryContext(ctx, queryGetUsersWithPoints)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.UserWithPoints
	for rows.Next() {
		var u models.UserWithPoints
		err := rows.Scan(&u.Id, &u.OpenId, &u.Name, &u.Email, &u.LoginMethod, &u.Role, &u.IsVpnUser, &u.FraudScore,
			&u.LastIpAddress, &u.IsBlocked, &u.BlockReason, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn,
			&u.Points, &u.TotalEarned, &u.TotalWithdrawn, &u.AdViewCount)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, u)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) SetUserRole(ctx context.Context, userId int64, role models.Role) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("invalid role %q", role)
	}
	if err := s.updateUser(ctx, queryUpdateUserRole, userId, string(role), s.now(), userId); err != nil {
		return err
	}
	zap.L().Info("User role updated", zap.Int64("user_id", userId), zap.String("role", string(role)))
	return nil
}

func (s *Service) SetUserBlocked(ctx context.Context, userId int64, blocked bool, reason string) error {
	if !blocked {
		reason = ""
	}
	if err := s.updateUser(ctx, queryUpdateUserBlocked, userId, blocked, nullString(reason), s.now(), userId); err != nil {
		return err
	}
	zap.L().Info("User block flag updated",
		zap.Int64("user_id", userId),
		zap.Bool("blocked", blocked),
		zap.String("reason", reason))
	return nil
}

func (s *Service) RecordFraudSignal(ctx context.Context, userId int64, params store.FraudSignalParams) error {
	err := s.updateUser(ctx, queryUpdateFraudSignal, userId,
		params.IsVpnUser, params.FraudScore, nullString(params.LastIpAddress), s.now(), userId)
	if err != nil {
		return err
	}
	zap.L().Info("Fraud signal recorded",
		zap.Int64("user_id", userId),
		zap.Bool("is_vpn_user", params.IsVpnUser),
		zap.Int("fraud_score", params.FraudScore))
	return nil
}

func (s *Service) updateUser(ctx context.Context, query string, userId int64, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("unable to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.Id, &u.OpenId, &u.Name, &u.Email, &u.LoginMethod, &u.Role, &u.IsVpnUser, &u.FraudScore,
		&u.LastIpAddress, &u.IsBlocked, &u.BlockReason, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
