package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ad-rewards-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrUserNotFound           = errors.New("user not found")
	ErrWithdrawalNotFound     = errors.New("withdrawal request not found")
	ErrInsufficientPoints     = errors.New("insufficient points")
	ErrAlreadyProcessed       = errors.New("withdrawal request already processed")
	ErrAccountBlocked         = errors.New("account blocked")
	ErrVpnNotAllowed          = errors.New("withdrawals are not allowed while using a VPN")
)

// AccountBlockedError carries the block reason recorded by an admin or fraud signal.
type AccountBlockedError struct {
	Reason string
}

func (e *AccountBlockedError) Error() string {
	if e.Reason == "" {
		return ErrAccountBlocked.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAccountBlocked, e.Reason)
}

func (e *AccountBlockedError) Is(target error) bool {
	return target == ErrAccountBlocked
}

// UpsertUserParams identifies a user on first or repeated authentication.
type UpsertUserParams struct {
	OpenId      string
	Name        string
	Email       string
	LoginMethod string
}

// CreditParams describes a points credit. When RecordAdView is set the
// credit and the ad view are committed together.
type CreditParams struct {
	UserId       int64
	Points       int64
	AdId         string
	RecordAdView bool
	Type         string
	Reference    string
}

// WithdrawalParams describes a withdrawal submission whose points are
// deducted in the same transaction that records the request. Blocked and
// VPN accounts are refused inside that transaction.
type WithdrawalParams struct {
	UserId        int64
	Points        int64
	AmountUsd     string
	Method        models.WithdrawalMethod
	MethodDetails string
}

// TransitionParams moves a pending withdrawal to a terminal status.
type TransitionParams struct {
	RequestId int64
	Status    models.WithdrawalStatus
	Policy    models.RejectPolicy
}

// TransitionResult reports what a review decision changed.
type TransitionResult struct {
	Request  *models.WithdrawalRequest
	Restored int64 // points returned to the account, zero on approval
}

// FraudSignalParams carries the output of an external fraud detector.
type FraudSignalParams struct {
	IsVpnUser     bool
	FraudScore    int
	LastIpAddress string
}

// UpsertAdParams describes a catalog entry keyed by title.
type UpsertAdParams struct {
	Title          string
	Description    string
	ImageUrl       string
	VideoUrl       string
	AdvertiserName string
	RewardPoints   int64
	Duration       int
	IsActive       bool
	TargetCountry  string
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	// --- Users ---
	UpsertUser(ctx context.Context, params UpsertUserParams) (*models.User, error)
	GetUserById(ctx context.Context, userId int64) (*models.User, error)
	GetUserByOpenId(ctx context.Context, openId string) (*models.User, error)
	GetUsersWithPoints(ctx context.Context) ([]models.UserWithPoints, error)
	SetUserRole(ctx context.Context, userId int64, role models.Role) error
	SetUserBlocked(ctx context.Context, userId int64, blocked bool, reason string) error
	RecordFraudSignal(ctx context.Context, userId int64, params FraudSignalParams) error

	// --- Points ---
	GetOrCreateAccount(ctx context.Context, userId int64) (*models.PointsAccount, error)
	CreditPoints(ctx context.Context, params CreditParams) (*models.PointTransaction, error)
	SetPoints(ctx context.Context, userId int64, points int64) (*models.PointTransaction, error)
	GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.PointTransaction, error)
	GetAccountDrift(ctx context.Context) ([]models.AccountDrift, error)

	// --- Ad views ---
	CountAdViews(ctx context.Context, userId int64) (int64, error)
	CountAdViewsSince(ctx context.Context, userId int64, since time.Time) (int64, error)

	// --- Withdrawals ---
	SubmitWithdrawal(ctx context.Context, params WithdrawalParams) (*models.WithdrawalRequest, error)
	TransitionWithdrawal(ctx context.Context, params TransitionParams) (*TransitionResult, error)
	GetWithdrawalById(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error)
	GetUserWithdrawals(ctx context.Context, userId int64) ([]models.WithdrawalRequest, error)
	GetWithdrawalsByStatus(ctx context.Context, status models.WithdrawalStatus) ([]models.PendingWithdrawal, error)

	// --- Ads ---
	UpsertAd(ctx context.Context, params UpsertAdParams) (*models.Ad, error)
	GetActiveAds(ctx context.Context) ([]models.Ad, error)

	// --- Reporting ---
	GetStats(ctx context.Context) (*models.LedgerStats, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
