package api

import (
	"errors"
	"fmt"

	"ad-rewards-go/internal/store"
)

// Error taxonomy surfaced to callers. Storage sentinels are re-exported so
// errors.Is works against either name.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAccountBlocked      = store.ErrAccountBlocked
	ErrVpnNotAllowed       = store.ErrVpnNotAllowed
	ErrInsufficientPoints  = store.ErrInsufficientPoints
	ErrAlreadyProcessed    = store.ErrAlreadyProcessed
	ErrConflict            = store.ErrConcurrentModification
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// AccountBlockedError carries the block reason recorded by an admin or fraud signal.
type AccountBlockedError = store.AccountBlockedError

// mapStoreError translates storage failures into the caller-facing taxonomy.
// Domain sentinels pass through; anything else means storage is unusable.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrAccountBlocked),
		errors.Is(err, store.ErrVpnNotAllowed),
		errors.Is(err, store.ErrInsufficientPoints),
		errors.Is(err, store.ErrAlreadyProcessed),
		errors.Is(err, store.ErrConcurrentModification):
		return err
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrWithdrawalNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
	}
}
