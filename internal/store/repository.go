/**
 * @description
 * This file defines the persistence ports used by the transfer orchestrator.
 * The `Repository` interface covers work outside a transaction; the
 * `TxRepository` interface is the surface bound to one open transaction and
 * is only reachable through `RunInTransaction`, so every write issued through
 * it is rolled back if the enclosing function returns an error.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pixpago/transfer-service/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrTransferNotFound = errors.New("transfer not found")
)

// Repository defines the data access methods available outside a transaction.
type Repository interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindTransferByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)

	// RunInTransaction opens a transaction, passes its bound repository to fn
	// and commits; any error from fn rolls every write back.
	RunInTransaction(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository defines the data access methods bound to an open transaction.
type TxRepository interface {
	// FindWalletByUserIDForUpdate loads a wallet by its owning account ID and
	// takes an exclusive row lock. A valid account always has a wallet, so a
	// missing row is an error, not an absence.
	FindWalletByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	SaveWallet(ctx context.Context, wallet *domain.Wallet) error
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	UpdateTransfer(ctx context.Context, transfer *domain.Transfer) error
	CreateOutboxEvent(ctx context.Context, event domain.TransferCompletedEvent) error
}
