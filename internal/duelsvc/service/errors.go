package service

import (
	"errors"
	"fmt"

	"github.com/avvvet/duel-services/internal/duelsvc/apperr"
	"github.com/avvvet/duel-services/internal/duelsvc/store"
)

// walletErr translates a wallet primitive failure. guard is returned when the
// balance condition did not hold.
func walletErr(err error, guard *apperr.Error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.ErrWalletNotFound
	case errors.Is(err, store.ErrGuardFailed):
		return guard
	}
	return fmt.Errorf("wallet update: %w", err)
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrUserNotFound
	}
	return fmt.Errorf("load user: %w", err)
}

func duelErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ErrDuelNotFound
	}
	return fmt.Errorf("load duel: %w", err)
}
