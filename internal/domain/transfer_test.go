package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransferStartsPending(t *testing.T) {
	amount, _ := NewMoney(1000)

	transfer, err := NewTransfer(uuid.New(), uuid.New(), amount)
	require.NoError(t, err)

	assert.Equal(t, TransferPending, transfer.Status)
	assert.NotEqual(t, uuid.Nil, transfer.ID)
	assert.False(t, transfer.CreatedAt.IsZero())
}

func TestNewTransferRejectsSamePayerAndPayee(t *testing.T) {
	amount, _ := NewMoney(1000)
	id := uuid.New()

	_, err := NewTransfer(id, id, amount)
	assert.ErrorIs(t, err, ErrSelfTransferNotAllowed)
}

func TestNewTransferGeneratesDistinctIDs(t *testing.T) {
	amount, _ := NewMoney(1000)
	payer, payee := uuid.New(), uuid.New()

	first, err := NewTransfer(payer, payee, amount)
	require.NoError(t, err)
	second, err := NewTransfer(payer, payee, amount)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestTransferMarkCompleted(t *testing.T) {
	amount, _ := NewMoney(1000)
	transfer, _ := NewTransfer(uuid.New(), uuid.New(), amount)

	require.NoError(t, transfer.MarkCompleted())
	assert.Equal(t, TransferCompleted, transfer.Status)
}

func TestTransferMarkFailed(t *testing.T) {
	amount, _ := NewMoney(1000)
	transfer, _ := NewTransfer(uuid.New(), uuid.New(), amount)

	require.NoError(t, transfer.MarkFailed())
	assert.Equal(t, TransferFailed, transfer.Status)
}

func TestTransferTerminalStatusIsFinal(t *testing.T) {
	amount, _ := NewMoney(1000)

	completed, _ := NewTransfer(uuid.New(), uuid.New(), amount)
	require.NoError(t, completed.MarkCompleted())
	assert.ErrorIs(t, completed.MarkFailed(), ErrTransferFinalized)
	assert.ErrorIs(t, completed.MarkCompleted(), ErrTransferFinalized)
	assert.Equal(t, TransferCompleted, completed.Status)

	failed, _ := NewTransfer(uuid.New(), uuid.New(), amount)
	require.NoError(t, failed.MarkFailed())
	assert.ErrorIs(t, failed.MarkCompleted(), ErrTransferFinalized)
	assert.Equal(t, TransferFailed, failed.Status)
}
