/**
 * @description
 * This file implements the transfer orchestrator. PerformTransfer runs the
 * full pipeline for one transfer attempt: account lookup, business-rule
 * gates, external authorization and finally the atomic balance mutation.
 *
 * Ordering rules the implementation relies on:
 * - All business gates and the authorization call happen before any wallet
 *   row is locked, so rejected attempts never contend on wallets.
 * - Inside the transaction, wallets are locked in the byte order of their
 *   owning account IDs. Two opposing transfers between the same pair of
 *   accounts always lock the same wallet first, so they cannot deadlock.
 * - The completion event is written to the outbox in the same transaction as
 *   the balance mutation. Either both persist or neither does.
 */

package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/store"
	"github.com/pixpago/transfer-service/pkg/authclient"
)

var (
	// ErrTransferNotAuthorized means the external authorizer refused the
	// transfer.
	ErrTransferNotAuthorized = errors.New("transfer not authorized")
	// ErrTransferServiceUnavailable means a dependency needed to decide the
	// transfer could not be reached.
	ErrTransferServiceUnavailable = errors.New("transfer service unavailable")
)

// Authorizer asks an external service whether a transfer may proceed.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// TransferService is the orchestration surface exposed to the HTTP layer.
type TransferService interface {
	PerformTransfer(ctx context.Context, payerID, payeeID uuid.UUID, amount domain.Money) (uuid.UUID, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
}

// Service orchestrates money transfers between wallets.
type Service struct {
	repo       store.Repository
	authorizer Authorizer
	ledger     domain.MoneyTransferrer
}

// NewService creates the transfer orchestrator.
func NewService(repo store.Repository, authorizer Authorizer) *Service {
	return &Service{repo: repo, authorizer: authorizer}
}

// PerformTransfer moves amount from the payer's wallet to the payee's wallet
// and returns the new transfer's ID. Every call creates a new transfer;
// retrying a failed call is a new attempt with a new ID.
func (s *Service) PerformTransfer(ctx context.Context, payerID, payeeID uuid.UUID, amount domain.Money) (uuid.UUID, error) {
	payer, err := s.repo.FindUserByID(ctx, payerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("looking up payer %s: %w", payerID, err)
	}
	payee, err := s.repo.FindUserByID(ctx, payeeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("looking up payee %s: %w", payeeID, err)
	}

	if payer.ID == payee.ID {
		return uuid.Nil, domain.ErrSelfTransferNotAllowed
	}
	if !payer.CanSendMoney() {
		return uuid.Nil, fmt.Errorf("payer %s: %w", payer.ID, domain.ErrNotAllowedPayer)
	}

	transfer, err := domain.NewTransfer(payer.ID, payee.ID, amount)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.authorizer.Authorize(ctx); err != nil {
		switch {
		case errors.Is(err, authclient.ErrNotAuthorized):
			return uuid.Nil, ErrTransferNotAuthorized
		default:
			return uuid.Nil, fmt.Errorf("%w: %v", ErrTransferServiceUnavailable, err)
		}
	}

	err = s.repo.RunInTransaction(ctx, func(tx store.TxRepository) error {
		payerWallet, payeeWallet, err := lockWalletPair(ctx, tx, payer.ID, payee.ID)
		if err != nil {
			return err
		}

		if err := tx.CreateTransfer(ctx, transfer); err != nil {
			return err
		}
		if err := s.ledger.Transfer(payerWallet, payeeWallet, amount); err != nil {
			return err
		}
		if err := transfer.MarkCompleted(); err != nil {
			return err
		}

		if err := tx.SaveWallet(ctx, payerWallet); err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, payeeWallet); err != nil {
			return err
		}
		if err := tx.UpdateTransfer(ctx, transfer); err != nil {
			return err
		}

		event, err := domain.NewTransferCompletedEvent(transfer.ID)
		if err != nil {
			return err
		}
		return tx.CreateOutboxEvent(ctx, event)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return transfer.ID, nil
}

// GetTransfer returns one transfer by its ID.
func (s *Service) GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	return s.repo.FindTransferByID(ctx, id)
}

// lockWalletPair locks both wallets in the byte order of their owning account
// IDs and returns them as (payer, payee) regardless of which was locked
// first.
func lockWalletPair(ctx context.Context, tx store.TxRepository, payerID, payeeID uuid.UUID) (*domain.Wallet, *domain.Wallet, error) {
	first, second := payerID, payeeID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	firstWallet, err := tx.FindWalletByUserIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	secondWallet, err := tx.FindWalletByUserIDForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == payerID {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}
