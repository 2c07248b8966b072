package formance

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// GetUserPoints returns the mirrored balance of users:{userId}. An account the
// ledger has never seen has a zero balance.
func (s *Service) GetUserPoints(ctx context.Context, userId int64) (int64, error) {
	address := "users:" + strconv.FormatInt(userId, 10)
	zap.L().Debug("Getting mirrored balance", zap.String("address", address))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	balance := volumeBalance(resp.V2AccountResponse.Data.Volumes, pointsAsset)
	if balance == nil {
		return 0, nil
	}
	if !balance.IsInt64() {
		return 0, fmt.Errorf("mirrored balance of %s overflows int64: %s", address, balance.String())
	}
	return balance.Int64(), nil
}

// volumeBalance returns input minus output for an asset, preferring the
// balance the ledger computed when present.
func volumeBalance(vols map[string]shared.V2Volume, asset string) *big.Int {
	vol, ok := vols[asset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}
