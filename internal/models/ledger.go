package models

// Ledger entry kinds posted to an external ledger mirror
const (
	EntryAdView             = "ad_view"
	EntryWithdrawalPending  = "withdrawal_pending"
	EntryWithdrawalApproved = "withdrawal_approved"
	EntryWithdrawalRejected = "withdrawal_rejected"
	EntryAdminAdjustment    = "admin_adjustment"
)

// LedgerEntry is one committed point movement, described independently of
// the backend that stores it. Reference is unique per movement and lets the
// receiving ledger drop replays.
type LedgerEntry struct {
	Kind      string
	UserId    int64
	RequestId int64
	Points    int64 // signed for admin adjustments, positive otherwise
	Reference string
}
