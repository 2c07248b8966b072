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
	"errors"
	"fmt"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubledgerService owns the points accounts (hot data) and the point
// transaction audit trail (cold data). Every method runs inside a caller
// supplied transaction so balance changes and their audit rows commit together.
type SubledgerService struct{}

func NewSubledgerService() *SubledgerService {
	return &SubledgerService{}
}

func (s *SubledgerService) InitSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	-- Points accounts (current state, one row per user)
	CREATE TABLE IF NOT EXISTS user_points (
		user_id INTEGER PRIMARY KEY REFERENCES users(id),
		points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
		total_earned INTEGER NOT NULL DEFAULT 0,
		total_withdrawn INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	);

	-- Point transactions (audit trail)
	CREATE TABLE IF NOT EXISTS point_transactions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		transaction_type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		points_before INTEGER NOT NULL,
		points_after INTEGER NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_point_transactions_user_created ON point_transactions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_point_transactions_type ON point_transactions(transaction_type);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// EnsureAccount returns the user's account, creating a zero row on first use.
func (s *SubledgerService) EnsureAccount(ctx context.Context, tx *sql.Tx, userId int64, now time.Time) (*models.PointsAccount, error) {
	var exists int
	err := tx.QueryRowContext(ctx, queryUserExists, userId).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", store.ErrUserNotFound, userId)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryInsertAccount, userId, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create points account: %w", err)
	}
	if created, err := result.RowsAffected(); err == nil && created > 0 {
		zap.L().Info("Created points account", zap.Int64("user_id", userId))
	}

	var account models.PointsAccount
	err = tx.QueryRowContext(ctx, queryGetAccount, userId).Scan(
		&account.UserId, &account.Points, &account.TotalEarned, &account.TotalWithdrawn,
		&account.Version, &account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	return &account, nil
}

// MovementParams describes one audited change of a user's points.
type MovementParams struct {
	UserId       int64
	Type         string
	Amount       int64
	PointsBefore int64
	Reference    string
	CreatedAt    time.Time
}

// RecordMovement appends an audit row for a balance change already applied in tx.
func (s *SubledgerService) RecordMovement(ctx context.Context, tx *sql.Tx, params MovementParams) (*models.PointTransaction, error) {
	transaction := &models.PointTransaction{
		Id:           uuid.New().String(),
		UserId:       params.UserId,
		Type:         params.Type,
		Amount:       params.Amount,
		PointsBefore: params.PointsBefore,
		PointsAfter:  params.PointsBefore + params.Amount,
		Reference:    params.Reference,
		CreatedAt:    params.CreatedAt,
	}

	_, err := tx.ExecContext(ctx, queryInsertPointTransaction,
		transaction.Id, transaction.UserId, transaction.Type, transaction.Amount,
		transaction.PointsBefore, transaction.PointsAfter, transaction.Reference, transaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert point transaction: %w", err)
	}
	return transaction, nil
}
