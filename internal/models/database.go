package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type WithdrawalMethod string

const (
	MethodInstapay     WithdrawalMethod = "instapay"
	MethodVodafoneCash WithdrawalMethod = "vodafone_cash"
	MethodPaypal       WithdrawalMethod = "paypal"
)

// Valid reports whether m is one of the supported payout methods
func (m WithdrawalMethod) Valid() bool {
	switch m {
	case MethodInstapay, MethodVodafoneCash, MethodPaypal:
		return true
	}
	return false
}

type WithdrawalStatus string

const (
	StatusPending  WithdrawalStatus = "pending"
	StatusApproved WithdrawalStatus = "approved"
	StatusRejected WithdrawalStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s
func (s WithdrawalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// RejectPolicy decides how points flow back when a pending request is rejected.
type RejectPolicy string

const (
	// RejectCreditEarned restores points and adds them to total_earned,
	// leaving total_withdrawn untouched.
	RejectCreditEarned RejectPolicy = "credit_earned"
	// RejectReverseWithdrawn restores points and subtracts them from total_withdrawn.
	RejectReverseWithdrawn RejectPolicy = "reverse_withdrawn"
)

func (p RejectPolicy) Valid() bool {
	return p == RejectCreditEarned || p == RejectReverseWithdrawn
}

// Point transaction types recorded in the audit trail
const (
	TxTypeAdView             = "ad_view"
	TxTypeWithdrawal         = "withdrawal"
	TxTypeWithdrawalRejected = "withdrawal_rejected"
	TxTypeAdminSet           = "admin_set"
)

// UnknownAdId is recorded when a credit arrives without an ad identifier
const UnknownAdId = "unknown"

// User represents an authenticated app user
type User struct {
	Id            int64          `db:"id"`
	OpenId        string         `db:"open_id"`
	Name          sql.NullString `db:"name"`
	Email         sql.NullString `db:"email"`
	LoginMethod   sql.NullString `db:"login_method"`
	Role          Role           `db:"role"`
	IsVpnUser     bool           `db:"is_vpn_user"`
	FraudScore    int            `db:"fraud_score"`
	LastIpAddress sql.NullString `db:"last_ip_address"`
	IsBlocked     bool           `db:"is_blocked"`
	BlockReason   sql.NullString `db:"block_reason"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	LastSignedIn  time.Time      `db:"last_signed_in"`
}

// IsAdmin reports admin-ness from the role field only
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PointsAccount is the current balance state of one user (hot data)
type PointsAccount struct {
	UserId         int64     `db:"user_id"`
	Points         int64     `db:"points"`
	TotalEarned    int64     `db:"total_earned"`
	TotalWithdrawn int64     `db:"total_withdrawn"`
	Version        int64     `db:"version"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// AdView is an append-only record of one completed ad
type AdView struct {
	Id       int64     `db:"id"`
	UserId   int64     `db:"user_id"`
	AdId     string    `db:"ad_id"`
	ViewedAt time.Time `db:"viewed_at"`
}

// WithdrawalRequest is one redemption attempt awaiting or past review
type WithdrawalRequest struct {
	Id            int64            `db:"id"`
	UserId        int64            `db:"user_id"`
	Points        int64            `db:"points"`
	AmountUsd     string           `db:"amount_usd"`
	Method        WithdrawalMethod `db:"method"`
	MethodDetails string           `db:"method_details"`
	Status        WithdrawalStatus `db:"status"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
	ProcessedAt   sql.NullTime     `db:"processed_at"`
}

// PendingWithdrawal is a withdrawal request joined with requester identity
type PendingWithdrawal struct {
	WithdrawalRequest
	UserName  sql.NullString
	UserEmail sql.NullString
}

// PointTransaction represents immutable point movement history (cold data)
type PointTransaction struct {
	Id           string    `db:"id"`
	UserId       int64     `db:"user_id"`
	Type         string    `db:"transaction_type"`
	Amount       int64     `db:"amount"`
	PointsBefore int64     `db:"points_before"`
	PointsAfter  int64     `db:"points_after"`
	Reference    string    `db:"reference"`
	CreatedAt    time.Time `db:"created_at"`
}

// Ad is a catalog entry users can watch
type Ad struct {
	Id             int64     `db:"id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	ImageUrl       string    `db:"image_url"`
	VideoUrl       string    `db:"video_url"`
	AdvertiserName string    `db:"advertiser_name"`
	RewardPoints   int64     `db:"reward_points"`
	Duration       int       `db:"duration"`
	IsActive       bool      `db:"is_active"`
	TargetCountry  string    `db:"target_country"`
	CreatedAt      time.Time `db:"created_at"`
}

// UserWithPoints is a user row joined with its account and view count
type UserWithPoints struct {
	User
	Points         int64
	TotalEarned    int64
	TotalWithdrawn int64
	AdViewCount    int64
}

// LedgerStats holds admin rollups across all users
type LedgerStats struct {
	UserCount      int64
	TotalEarned    int64
	TotalWithdrawn int64
	PendingCount   int64
	PendingPoints  int64
}

// AccountDrift is an account whose points differ from earned minus withdrawn
type AccountDrift struct {
	UserId         int64
	Points         int64
	TotalEarned    int64
	TotalWithdrawn int64
}

// Expected returns the balance implied by the lifetime totals
func (d AccountDrift) Expected() int64 {
	return d.TotalEarned - d.TotalWithdrawn
}
