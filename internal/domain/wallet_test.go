package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFundedWallet(t *testing.T, cents int64) *Wallet {
	t.Helper()
	balance, err := NewMoney(cents)
	require.NoError(t, err)
	return &Wallet{ID: uuid.New(), UserID: uuid.New(), Balance: balance}
}

func TestNewEmptyWalletStartsAtZero(t *testing.T) {
	w := NewEmptyWallet(uuid.New(), uuid.New())
	assert.Equal(t, int64(0), w.Balance.Cents())
}

func TestWalletDebit(t *testing.T) {
	w := newFundedWallet(t, 10000)
	amount, _ := NewMoney(4000)

	require.NoError(t, w.Debit(amount))
	assert.Equal(t, int64(6000), w.Balance.Cents())
}

func TestWalletDebitExactBalanceEmptiesWallet(t *testing.T) {
	w := newFundedWallet(t, 5000)
	amount, _ := NewMoney(5000)

	require.NoError(t, w.Debit(amount))
	assert.Equal(t, int64(0), w.Balance.Cents())
}

func TestWalletDebitInsufficientBalanceLeavesWalletUntouched(t *testing.T) {
	w := newFundedWallet(t, 1000)
	amount, _ := NewMoney(2000)

	err := w.Debit(amount)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(1000), w.Balance.Cents())
}

func TestWalletDeposit(t *testing.T) {
	w := newFundedWallet(t, 1000)
	amount, _ := NewMoney(2500)

	w.Deposit(amount)
	assert.Equal(t, int64(3500), w.Balance.Cents())
}

func TestWalletCanDebit(t *testing.T) {
	w := newFundedWallet(t, 1000)

	exact, _ := NewMoney(1000)
	over, _ := NewMoney(1001)

	assert.True(t, w.CanDebit(exact))
	assert.False(t, w.CanDebit(over))
}
