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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceResponse is the public view of a points account
type BalanceResponse struct {
	Points         int64 `json:"points"`
	TotalEarned    int64 `json:"totalEarned"`
	TotalWithdrawn int64 `json:"totalWithdrawn"`
}

// CreditRequest is the body of a credit-for-ad-view call
type CreditRequest struct {
	Points int64  `json:"points"`
	AdId   string `json:"adId,omitempty"`
}

// AdViewCounts reports how many ads a user has completed
type AdViewCounts struct {
	Total int64 `json:"total"`
	Today int64 `json:"today"`
}

// SubmitWithdrawalRequest is the body of a withdrawal submission
type SubmitWithdrawalRequest struct {
	Points      int64            `json:"points"`
	Method      WithdrawalMethod `json:"method"`
	ContactInfo string           `json:"contactInfo"`
}

// SubmitWithdrawalResponse is returned after a successful submission
type SubmitWithdrawalResponse struct {
	Success   bool  `json:"success"`
	RequestId int64 `json:"requestId"`
}

// SuccessResponse is the generic acknowledgement body
type SuccessResponse struct {
	Success bool `json:"success"`
}

// WithdrawalRecord is the JSON view of a withdrawal request
type WithdrawalRecord struct {
	Id            int64            `json:"id"`
	UserId        int64            `json:"userId"`
	UserName      string           `json:"userName,omitempty"`
	UserEmail     string           `json:"userEmail,omitempty"`
	Points        int64            `json:"points"`
	AmountUsd     string           `json:"amountUsd"`
	Method        WithdrawalMethod `json:"method"`
	MethodDetails string           `json:"methodDetails"`
	Status        WithdrawalStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	ProcessedAt   *time.Time       `json:"processedAt,omitempty"`
}

// UpdateWithdrawalRequest is the body of an admin review decision
type UpdateWithdrawalRequest struct {
	Status WithdrawalStatus `json:"status"`
}

// SetPointsRequest is the body of an admin balance override
type SetPointsRequest struct {
	Points *int64 `json:"points"`
}

// SetBlockedRequest is the body of an admin block/unblock call
type SetBlockedRequest struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// FraudSignalRequest carries the output of an external fraud detector
type FraudSignalRequest struct {
	IsVpnUser     bool   `json:"isVpnUser"`
	FraudScore    int    `json:"fraudScore"`
	LastIpAddress string `json:"lastIpAddress,omitempty"`
}

// UserRecord is the JSON view of a user
type UserRecord struct {
	Id           int64     `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	IsBlocked    bool      `json:"isBlocked"`
	BlockReason  string    `json:"blockReason,omitempty"`
	IsVpnUser    bool      `json:"isVpnUser"`
	FraudScore   int       `json:"fraudScore"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// AdminUserRecord is a user joined with balance and ad view count
type AdminUserRecord struct {
	UserRecord
	Points         int64 `json:"points"`
	TotalEarned    int64 `json:"totalEarned"`
	TotalWithdrawn int64 `json:"totalWithdrawn"`
	AdViewCount    int64 `json:"adViewCount"`
}

// StatsResponse holds admin rollups
type StatsResponse struct {
	UserCount          int64           `json:"userCount"`
	TotalEarned        int64           `json:"totalEarned"`
	TotalWithdrawn     int64           `json:"totalWithdrawn"`
	PendingCount       int64           `json:"pendingCount"`
	PendingPoints      int64           `json:"pendingPoints"`
	PendingAmountUsd   decimal.Decimal `json:"pendingAmountUsd"`
	WithdrawnAmountUsd decimal.Decimal `json:"withdrawnAmountUsd"`
}

// TransactionRecord represents a point movement in the user's history
type TransactionRecord struct {
	Id           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	PointsBefore int64     `json:"pointsBefore"`
	PointsAfter  int64     `json:"pointsAfter"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AdRecord is the JSON view of a catalog ad
type AdRecord struct {
	Id             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	ImageUrl       string `json:"imageUrl,omitempty"`
	VideoUrl       string `json:"videoUrl,omitempty"`
	AdvertiserName string `json:"advertiserName,omitempty"`
	RewardPoints   int64  `json:"rewardPoints"`
	Duration       int    `json:"duration"`
	TargetCountry  string `json:"targetCountry,omitempty"`
}

// DriftRecord is an account whose balance differs from its lifetime totals
type DriftRecord struct {
	UserId         int64 `json:"userId"`
	Points         int64 `json:"points"`
	Expected       int64 `json:"expected"`
	TotalEarned    int64 `json:"totalEarned"`
	TotalWithdrawn int64 `json:"totalWithdrawn"`
}
