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

const (
	// User queries
	userColumns = `id, open_id, name, email, login_method, role, is_vpn_user, fraud_score,
		last_ip_address, is_blocked, block_reason, created_at, updated_at, last_signed_in`

	queryUpsertUser = `
		INSERT INTO users (open_id, name, email, login_method, role, created_at, updated_at, last_signed_in)
		VALUES (?, ?, ?, ?, 'user', ?, ?, ?)
		ON CONFLICT(open_id) DO UPDATE SET
			name = COALESCE(excluded.name, users.name),
			email = COALESCE(excluded.email, users.email),
			login_method = COALESCE(excluded.login_method, users.login_method),
			updated_at = excluded.updated_at,
			last_signed_in = excluded.last_signed_in`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByOpenId = `
		SELECT ` + userColumns + `
		FROM users
		WHERE open_id = ?`

	queryGetWithdrawalGates = `
		SELECT is_blocked, block_reason, is_vpn_user FROM users WHERE id = ?`

	queryUserExists = `
		SELECT 1 FROM users WHERE id = ?`

	queryGetUsersWithPoints = `
		SELECT u.id, u.open_id, u.name, u.email, u.login_method, u.role, u.is_vpn_user, u.fraud_score,
		       u.last_ip_address, u.is_blocked, u.block_reason, u.created_at, u.updated_at, u.last_signed_in,
		       COALESCE(p.points, 0), COALESCE(p.total_earned, 0), COALESCE(p.total_withdrawn, 0),
		       (SELECT COUNT(*) FROM ad_views v WHERE v.user_id = u.id)
		FROM users u
		LEFT JOIN user_points p ON p.user_id = u.id
		ORDER BY u.created_at DESC, u.id DESC`

	queryUpdateUserRole = `
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	queryUpdateUserBlocked = `
		UPDATE users SET is_blocked = ?, block_reason = ?, updated_at = ? WHERE id = ?`

	queryUpdateFraudSignal = `
		UPDATE users SET is_vpn_user = ?, fraud_score = ?, last_ip_address = COALESCE(?, last_ip_address), updated_at = ?
		WHERE id = ?`

	// Points account queries
	queryInsertAccount = `
		INSERT OR IGNORE INTO user_points (user_id, points, total_earned, total_withdrawn, version, updated_at)
		VALUES (?, 0, 0, 0, 1, ?)`

	queryGetAccount = `
		SELECT user_id, points, total_earned, total_withdrawn, version, updated_at
		FROM user_points
		WHERE user_id = ?`

	queryCreditAccount = `
		UPDATE user_points
		SET points = points + ?, total_earned = total_earned + ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// Conditional decrement: zero rows means the balance could not cover the request.
	queryDebitAccountIfSufficient = `
		UPDATE user_points
		SET points = points - ?, total_withdrawn = total_withdrawn + ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND points >= ?
		RETURNING points`

	queryRestoreCreditEarned = `
		UPDATE user_points
		SET points = points + ?, total_earned = total_earned + ?, version = version + 1, updated_at = ?
		WHERE user_id = ?
		RETURNING points`

	queryRestoreReverseWithdrawn = `
		UPDATE user_points
		SET points = points + ?, total_withdrawn = MAX(total_withdrawn - ?, 0), version = version + 1, updated_at = ?
		WHERE user_id = ?
		RETURNING points`

	querySetAccountPoints = `
		UPDATE user_points
		SET points = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	queryGetAccountDrift = `
		SELECT user_id, points, total_earned, total_withdrawn
		FROM user_points
		WHERE points != total_earned - total_withdrawn
		ORDER BY user_id`

	// Point transaction queries
	queryInsertPointTransaction = `
		INSERT INTO point_transactions (id, user_id, transaction_type, amount, points_before, points_after, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, amount, points_before, points_after, reference, created_at
		FROM point_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	// Ad view queries
	queryInsertAdView = `
		INSERT INTO ad_views (user_id, ad_id, viewed_at) VALUES (?, ?, ?)`

	queryCountAdViews = `
		SELECT COUNT(*) FROM ad_views WHERE user_id = ?`

	queryCountAdViewsSince = `
		SELECT COUNT(*) FROM ad_views WHERE user_id = ? AND viewed_at >= ?`

	// Withdrawal queries
	withdrawalColumns = `id, user_id, points, amount_usd, method, method_details, status, created_at, updated_at, processed_at`

	queryInsertWithdrawal = `
		INSERT INTO withdrawal_requests (user_id, points, amount_usd, method, method_details, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`

	queryGetWithdrawalById = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = ?`

	queryGetWithdrawalStatus = `
		SELECT status FROM withdrawal_requests WHERE id = ?`

	// Only a pending request can move; zero rows means missing or already terminal.
	queryTransitionWithdrawal = `
		UPDATE withdrawal_requests
		SET status = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	queryGetUserWithdrawals = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	queryGetWithdrawalsWithUser = `
		SELECT w.id, w.user_id, w.points, w.amount_usd, w.method, w.method_details, w.status,
		       w.created_at, w.updated_at, w.processed_at, u.name, u.email
		FROM withdrawal_requests w
		JOIN users u ON u.id = w.user_id
		WHERE (? = '' OR w.status = ?)
		ORDER BY w.created_at DESC, w.id DESC`

	// Ads queries
	adColumns = `id, title, description, image_url, video_url, advertiser_name, reward_points, duration, is_active, target_country, created_at`

	queryUpsertAd = `
		INSERT INTO ads (title, description, image_url, video_url, advertiser_name, reward_points, duration, is_active, target_country, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			description = excluded.description,
			image_url = excluded.image_url,
			video_url = excluded.video_url,
			advertiser_name = excluded.advertiser_name,
			reward_points = excluded.reward_points,
			duration = excluded.duration,
			is_active = excluded.is_active,
			target_country = excluded.target_country`

	queryGetAdByTitle = `
		SELECT ` + adColumns + `
		FROM ads
		WHERE title = ?`

	queryGetActiveAds = `
		SELECT ` + adColumns + `
		FROM ads
		WHERE is_active = 1
		ORDER BY id`

	// Reporting queries
	queryGetLedgerTotals = `
		SELECT
			(SELECT COUNT(*) FROM users),
			COALESCE(SUM(total_earned), 0),
			COALESCE(SUM(total_withdrawn), 0)
		FROM user_points`

	queryGetPendingTotals = `
		SELECT COUNT(*), COALESCE(SUM(points), 0)
		FROM withdrawal_requests
		WHERE status = 'pending'`
)
