/**
 * @description
 * This file defines the wallet aggregate: the mutable balance owned
 * one-to-one by an account. Balance changes happen exclusively through Debit
 * and Deposit; the caller is responsible for holding the row lock and for
 * durability.
 */

package domain

import (
	"errors"

	"github.com/google/uuid"
)

// ErrInsufficientBalance is returned when a debit exceeds the wallet balance.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// Wallet holds an account's current balance. It references its owner by ID
// only; the account is loaded independently when needed.
type Wallet struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Balance Money
}

// NewEmptyWallet creates a wallet with a zero balance for an account.
func NewEmptyWallet(id, userID uuid.UUID) *Wallet {
	return &Wallet{ID: id, UserID: userID, Balance: ZeroMoney()}
}

// CanDebit reports whether the wallet covers the amount.
func (w *Wallet) CanDebit(amount Money) bool {
	return w.Balance.GreaterOrEqual(amount)
}

// Debit removes the amount from the balance, or returns
// ErrInsufficientBalance leaving the wallet untouched.
func (w *Wallet) Debit(amount Money) error {
	if !w.CanDebit(amount) {
		return ErrInsufficientBalance
	}
	balance, err := w.Balance.Subtract(amount)
	if err != nil {
		return err
	}
	w.Balance = balance
	return nil
}

// Deposit adds the amount to the balance. Deposits never fail.
func (w *Wallet) Deposit(amount Money) {
	w.Balance = w.Balance.Add(amount)
}
