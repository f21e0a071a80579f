// Package ledger enforces balance bounds and applies single- and two-account
// balance changes atomically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/storage"
)

var (
	// ErrDeltaOutOfRange indicates |delta| above models.MaxDelta.
	ErrDeltaOutOfRange = apperrors.New(apperrors.CodeDeltaOutOfRange, "amount out of range")
	// ErrBalanceOutOfRange indicates a resulting balance outside [MinBalance, MaxBalance].
	ErrBalanceOutOfRange = apperrors.New(apperrors.CodeBalanceOutOfRange, "resulting balance out of range")
	// ErrUnknownAccount indicates that an account does not exist.
	ErrUnknownAccount = apperrors.New(apperrors.CodeUnknownAccount, "account does not exist")
)

// Store is the persistence the ledger writes through.
type Store interface {
	GetUser(ctx context.Context, username string) (*models.Account, error)
	SetBalances(ctx context.Context, updates ...storage.BalanceUpdate) error
}

// Ledger serializes every balance mutation behind one lock and keeps an
// in-memory mirror of the balances it has seen. The mirror and the store are
// only ever changed together while the lock is held.
type Ledger struct {
	store Store

	mu       sync.Mutex
	balances map[string]int64
}

// New creates a Ledger over store.
func New(store Store) *Ledger {
	return &Ledger{
		store:    store,
		balances: make(map[string]int64),
	}
}

// Balance returns the current balance of username.
func (l *Ledger) Balance(ctx context.Context, username string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx, username)
}

// AddBalance changes the balance of username by delta.
func (l *Ledger) AddBalance(ctx context.Context, username string, delta int64) error {
	if err := CheckDelta(delta); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.loadLocked(ctx, username)
	if err != nil {
		return err
	}
	next, err := Apply(current, delta)
	if err != nil {
		return err
	}

	if err := l.store.SetBalances(ctx, storage.BalanceUpdate{Username: username, Balance: next}); err != nil {
		return apperrors.Storage("update balance", err)
	}
	l.balances[username] = next
	return nil
}

// Transfer moves amount from caller to counterparty. A negative amount pulls
// money from counterparty instead. Both resulting balances are validated before
// either is written, and both are written in one store transaction.
func (l *Ledger) Transfer(ctx context.Context, caller string, amount int64, counterparty string) error {
	if err := CheckDelta(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	counterBalance, err := l.loadLocked(ctx, counterparty)
	if err != nil {
		return err
	}
	callerBalance, err := l.loadLocked(ctx, caller)
	if err != nil {
		return err
	}
	if caller == counterparty {
		return nil
	}

	callerNext, err := Apply(callerBalance, -amount)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeBalanceOutOfRange, fmt.Sprintf("balance of %s out of range", caller), err)
	}
	counterNext, err := Apply(counterBalance, amount)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeBalanceOutOfRange, fmt.Sprintf("balance of %s out of range", counterparty), err)
	}

	err = l.store.SetBalances(ctx,
		storage.BalanceUpdate{Username: caller, Balance: callerNext},
		storage.BalanceUpdate{Username: counterparty, Balance: counterNext},
	)
	if err != nil {
		return apperrors.Storage("transfer balance", err)
	}
	l.balances[caller] = callerNext
	l.balances[counterparty] = counterNext

	log.Printf("transferred %d from %s to %s", amount, caller, counterparty)
	return nil
}

func (l *Ledger) loadLocked(ctx context.Context, username string) (int64, error) {
	if balance, ok := l.balances[username]; ok {
		return balance, nil
	}
	account, err := l.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, apperrors.New(apperrors.CodeUnknownAccount, fmt.Sprintf("account %s does not exist", username))
		}
		return 0, apperrors.Storage("load balance", err)
	}
	l.balances[username] = account.Balance
	return account.Balance, nil
}

// CheckDelta validates the magnitude of a single balance change.
func CheckDelta(delta int64) error {
	if delta > models.MaxDelta || delta < -models.MaxDelta {
		return ErrDeltaOutOfRange
	}
	return nil
}

// Apply returns balance+delta, or ErrBalanceOutOfRange if that leaves the bounds.
func Apply(balance, delta int64) (int64, error) {
	next := balance + delta
	if next < models.MinBalance || next > models.MaxBalance {
		return balance, ErrBalanceOutOfRange
	}
	return next, nil
}
