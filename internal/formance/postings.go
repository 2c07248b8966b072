package formance

import (
	"context"
	"fmt"
	"strconv"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. Metadata is set inside each script via set_tx_meta()
// so every mirrored transaction is self-describing. User accounts may go
// negative in the mirror; balance checks happen in SQLite before commit.
// ---------------------------------------------------------------------------

const numscriptAdView = `vars {
  asset $asset
  number $amount
  account $user_id
  string $reference
}

send [$asset $amount] (
  source = @world
  destination = @users:$user_id
)

set_tx_meta("event_type", "ad_view")
set_tx_meta("reference", $reference)
`

const numscriptWithdrawalPending = `vars {
  asset $asset
  number $amount
  account $user_id
  account $request_id
}

send [$asset $amount] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @withdrawals:pending:$request_id
)

set_tx_meta("event_type", "withdrawal_pending")
set_tx_meta("request_id", $request_id)
`

const numscriptWithdrawalApproved = `vars {
  asset $asset
  number $amount
  account $user_id
  account $request_id
}

send [$asset $amount] (
  source = @withdrawals:pending:$request_id allowing unbounded overdraft
  destination = @payouts
)

set_tx_meta("event_type", "withdrawal_approved")
set_tx_meta("request_id", $request_id)
set_tx_meta("user_id", $user_id)
`

const numscriptWithdrawalRejected = `vars {
  asset $asset
  number $amount
  account $user_id
  account $request_id
}

send [$asset $amount] (
  source = @withdrawals:pending:$request_id allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", "withdrawal_rejected")
set_tx_meta("request_id", $request_id)
`

const numscriptAdminCredit = `vars {
  asset $asset
  number $amount
  account $user_id
  string $reference
}

send [$asset $amount] (
  source = @adjustments allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("event_type", "admin_adjustment")
set_tx_meta("reference", $reference)
`

const numscriptAdminDebit = `vars {
  asset $asset
  number $amount
  account $user_id
  string $reference
}

send [$asset $amount] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @adjustments
)

set_tx_meta("event_type", "admin_adjustment")
set_tx_meta("reference", $reference)
`

// buildScript selects the template for an entry and fills its variables.
func buildScript(entry models.LedgerEntry) (*shared.V2PostTransactionScript, error) {
	if entry.UserId <= 0 {
		return nil, fmt.Errorf("ledger entry %q has no user", entry.Reference)
	}
	if entry.Points == 0 {
		return nil, fmt.Errorf("ledger entry %q moves no points", entry.Reference)
	}

	userId := strconv.FormatInt(entry.UserId, 10)
	amount := entry.Points
	vars := map[string]string{
		"asset":   pointsAsset,
		"user_id": userId,
	}

	var plain string
	switch entry.Kind {
	case models.EntryAdView:
		plain = numscriptAdView
		vars["reference"] = entry.Reference
	case models.EntryWithdrawalPending, models.EntryWithdrawalApproved, models.EntryWithdrawalRejected:
		if entry.RequestId <= 0 {
			return nil, fmt.Errorf("withdrawal entry %q has no request id", entry.Reference)
		}
		vars["request_id"] = strconv.FormatInt(entry.RequestId, 10)
		switch entry.Kind {
		case models.EntryWithdrawalPending:
			plain = numscriptWithdrawalPending
		case models.EntryWithdrawalApproved:
			plain = numscriptWithdrawalApproved
		default:
			plain = numscriptWithdrawalRejected
		}
	case models.EntryAdminAdjustment:
		plain = numscriptAdminCredit
		if amount < 0 {
			plain = numscriptAdminDebit
			amount = -amount
		}
		vars["reference"] = entry.Reference
	default:
		return nil, fmt.Errorf("unknown ledger entry kind %q", entry.Kind)
	}

	if amount < 0 {
		return nil, fmt.Errorf("ledger entry %q has negative amount %d", entry.Reference, amount)
	}
	vars["amount"] = strconv.FormatInt(amount, 10)

	return &shared.V2PostTransactionScript{Plain: plain, Vars: vars}, nil
}

// Post writes one movement to the ledger. The entry reference is the Formance
// transaction reference, so reposting the same movement is a no-op.
func (s *Service) Post(ctx context.Context, entry models.LedgerEntry) error {
	script, err := buildScript(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(entry.Reference),
			Script:    script,
		},
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Ledger entry already mirrored",
				zap.String("reference", entry.Reference),
				zap.Error(store.ErrDuplicateTransaction))
			return nil
		}
		return fmt.Errorf("error mirroring %s entry: %w", entry.Kind, err)
	}

	zap.L().Debug("Ledger entry mirrored",
		zap.String("kind", entry.Kind),
		zap.Int64("user_id", entry.UserId),
		zap.Int64("points", entry.Points),
		zap.String("reference", entry.Reference))
	return nil
}

func strPtr(s string) *string { return &s }
