/**
 * @description
 * This file implements the persistence ports on PostgreSQL via pgx. Wallet
 * rows are locked with `SELECT ... FOR UPDATE` so concurrent transfers on
 * overlapping wallets serialize at the lock-acquisition point, and the
 * completion event is written to the `transfer_outbox` table inside the same
 * transaction as the balance mutation.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixpago/transfer-service/internal/domain"
)

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID loads an account by its identifier.
func (r *PostgresRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT id, full_name, document, email, password_hash, type FROM users WHERE id = $1`

	var userID uuid.UUID
	var fullName, document, email, hash, userType string
	err := r.db.QueryRow(ctx, query, id).Scan(&userID, &fullName, &document, &email, &hash, &userType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}

	return hydrateUser(userID, fullName, document, email, hash, userType)
}

// FindTransferByID loads a transfer by its identifier.
func (r *PostgresRepository) FindTransferByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := `SELECT id, payer_id, payee_id, amount, status, created_at FROM transfers WHERE id = $1`

	var transfer domain.Transfer
	var amountCents int64
	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&transfer.ID, &transfer.PayerID, &transfer.PayeeID, &amountCents, &status, &transfer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("querying transfer %s: %w", id, err)
	}

	amount, err := domain.NewMoney(amountCents)
	if err != nil {
		return nil, fmt.Errorf("transfer %s has invalid amount %d: %w", id, amountCents, err)
	}
	transfer.Amount = amount
	transfer.Status = domain.TransferStatus(status)
	return &transfer, nil
}

// RunInTransaction runs fn inside a single database transaction. Any error
// from fn aborts the transaction and no write issued through the bound
// TxRepository persists.
func (r *PostgresRepository) RunInTransaction(ctx context.Context, fn func(tx TxRepository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgxTxRepository{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgxTxRepository is the TxRepository bound to one open pgx transaction.
type pgxTxRepository struct {
	tx pgx.Tx
}

func (r *pgxTxRepository) FindWalletByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance_amount FROM wallets WHERE user_id = $1 FOR UPDATE`

	var wallet domain.Wallet
	var balanceCents int64
	err := r.tx.QueryRow(ctx, query, userID).Scan(&wallet.ID, &wallet.UserID, &balanceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wallet for user %s: %w", userID, ErrWalletNotFound)
		}
		return nil, fmt.Errorf("locking wallet for user %s: %w", userID, err)
	}

	balance, err := domain.NewMoney(balanceCents)
	if err != nil {
		return nil, fmt.Errorf("wallet for user %s has invalid balance %d: %w", userID, balanceCents, err)
	}
	wallet.Balance = balance
	return &wallet, nil
}

func (r *pgxTxRepository) SaveWallet(ctx context.Context, wallet *domain.Wallet) error {
	query := `UPDATE wallets SET balance_amount = $1 WHERE id = $2`
	tag, err := r.tx.Exec(ctx, query, wallet.Balance.Cents(), wallet.ID)
	if err != nil {
		return fmt.Errorf("saving wallet %s: %w", wallet.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saving wallet %s: %w", wallet.ID, ErrWalletNotFound)
	}
	return nil
}

func (r *pgxTxRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, payer_id, payee_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.tx.Exec(ctx, query,
		transfer.ID, transfer.PayerID, transfer.PayeeID,
		transfer.Amount.Cents(), string(transfer.Status), transfer.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transfer %s: %w", transfer.ID, err)
	}
	return nil
}

func (r *pgxTxRepository) UpdateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	query := `UPDATE transfers SET status = $1 WHERE id = $2`
	tag, err := r.tx.Exec(ctx, query, string(transfer.Status), transfer.ID)
	if err != nil {
		return fmt.Errorf("updating transfer %s: %w", transfer.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating transfer %s: %w", transfer.ID, ErrTransferNotFound)
	}
	return nil
}

func (r *pgxTxRepository) CreateOutboxEvent(ctx context.Context, event domain.TransferCompletedEvent) error {
	query := `INSERT INTO transfer_outbox (id, transfer_id, occurred_at) VALUES ($1, $2, $3)`
	_, err := r.tx.Exec(ctx, query, event.EventID, event.TransferID, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("creating outbox event %s: %w", event.EventID, err)
	}
	return nil
}

func hydrateUser(id uuid.UUID, fullName, document, email, hash, userType string) (*domain.User, error) {
	doc, err := domain.NewDocument(document)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	address, err := domain.NewEmail(email)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	pw, err := domain.PasswordHashFromHash(hash)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return &domain.User{
		ID:           id,
		FullName:     fullName,
		Document:     doc,
		Email:        address,
		PasswordHash: pw,
		Type:         domain.UserType(userType),
	}, nil
}
