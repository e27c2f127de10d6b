/**
 * @description
 * This file defines the transfer aggregate: the lifecycle record of one
 * funds-movement request. A transfer starts PENDING and ends in exactly one
 * terminal status, COMPLETED or FAILED.
 *
 * @notes
 * - The transfer references payer and payee by account ID only. Accounts and
 *   wallets are loaded independently by the repository layer, so no shared
 *   mutable object graph exists between aggregates.
 */

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferFailed    TransferStatus = "FAILED"
)

var (
	// ErrSelfTransferNotAllowed is returned when payer and payee are the same
	// account.
	ErrSelfTransferNotAllowed = errors.New("payer and payee must be different accounts")

	// ErrTransferFinalized is returned on an attempt to move a transfer out
	// of a terminal status.
	ErrTransferFinalized = errors.New("transfer is already in a terminal status")
)

// Transfer records one funds-movement request.
type Transfer struct {
	ID        uuid.UUID
	PayerID   uuid.UUID
	PayeeID   uuid.UUID
	Amount    Money
	Status    TransferStatus
	CreatedAt time.Time
}

// NewTransfer creates a PENDING transfer with a freshly generated
// time-ordered identifier. The payer/payee inequality is re-validated here as
// a last line of defense, independent of the orchestrator's own check.
func NewTransfer(payerID, payeeID uuid.UUID, amount Money) (*Transfer, error) {
	if payerID == payeeID {
		return nil, ErrSelfTransferNotAllowed
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating transfer id: %w", err)
	}
	return &Transfer{
		ID:        id,
		PayerID:   payerID,
		PayeeID:   payeeID,
		Amount:    amount,
		Status:    TransferPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkCompleted transitions the transfer to COMPLETED.
func (t *Transfer) MarkCompleted() error {
	if t.isTerminal() {
		return ErrTransferFinalized
	}
	t.Status = TransferCompleted
	return nil
}

// MarkFailed transitions the transfer to FAILED.
func (t *Transfer) MarkFailed() error {
	if t.isTerminal() {
		return ErrTransferFinalized
	}
	t.Status = TransferFailed
	return nil
}

func (t *Transfer) isTerminal() bool {
	return t.Status == TransferCompleted || t.Status == TransferFailed
}
