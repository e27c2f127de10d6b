package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/pixpago/transfer-service/internal/domain"
	"github.com/pixpago/transfer-service/internal/store"
	"github.com/pixpago/transfer-service/pkg/authclient"
)

// fakeRepository is an in-memory store.Repository with transaction semantics:
// writes made inside RunInTransaction only become visible when the callback
// succeeds, mirroring a database rollback.
type fakeRepository struct {
	users   map[uuid.UUID]*domain.User
	wallets map[uuid.UUID]*domain.Wallet // keyed by owning user ID

	transfers map[uuid.UUID]*domain.Transfer
	outbox    []domain.TransferCompletedEvent

	userLookups int
	txCalls     int
	lockedUsers []uuid.UUID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:     make(map[uuid.UUID]*domain.User),
		wallets:   make(map[uuid.UUID]*domain.Wallet),
		transfers: make(map[uuid.UUID]*domain.Transfer),
	}
}

func (f *fakeRepository) addUser(userType domain.UserType, balanceCents int64) uuid.UUID {
	userID := uuid.New()
	f.users[userID] = &domain.User{ID: userID, Type: userType}
	balance, err := domain.NewMoney(balanceCents)
	if err != nil {
		panic(err)
	}
	f.wallets[userID] = &domain.Wallet{ID: uuid.New(), UserID: userID, Balance: balance}
	return userID
}

func (f *fakeRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.userLookups++
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeRepository) FindTransferByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	transfer, ok := f.transfers[id]
	if !ok {
		return nil, store.ErrTransferNotFound
	}
	return transfer, nil
}

func (f *fakeRepository) RunInTransaction(ctx context.Context, fn func(tx store.TxRepository) error) error {
	f.txCalls++
	tx := &fakeTxRepository{parent: f, wallets: make(map[uuid.UUID]*domain.Wallet)}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit: fold the transaction's writes into the shared state.
	for userID, wallet := range tx.wallets {
		f.wallets[userID] = wallet
	}
	for _, transfer := range tx.savedTransfers {
		copied := *transfer
		f.transfers[transfer.ID] = &copied
	}
	f.outbox = append(f.outbox, tx.outbox...)
	return nil
}

type fakeTxRepository struct {
	parent         *fakeRepository
	wallets        map[uuid.UUID]*domain.Wallet
	savedTransfers []*domain.Transfer
	outbox         []domain.TransferCompletedEvent
}

func (t *fakeTxRepository) FindWalletByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, ok := t.parent.wallets[userID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	t.parent.lockedUsers = append(t.parent.lockedUsers, userID)

	copied := *wallet
	t.wallets[userID] = &copied
	return &copied, nil
}

func (t *fakeTxRepository) SaveWallet(ctx context.Context, wallet *domain.Wallet) error {
	t.wallets[wallet.UserID] = wallet
	return nil
}

func (t *fakeTxRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	t.savedTransfers = append(t.savedTransfers, transfer)
	return nil
}

func (t *fakeTxRepository) UpdateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	t.savedTransfers = append(t.savedTransfers, transfer)
	return nil
}

func (t *fakeTxRepository) CreateOutboxEvent(ctx context.Context, event domain.TransferCompletedEvent) error {
	t.outbox = append(t.outbox, event)
	return nil
}

type stubAuthorizer struct {
	err   error
	calls int
}

func (a *stubAuthorizer) Authorize(ctx context.Context) error {
	a.calls++
	return a.err
}

func money(t *testing.T, cents int64) domain.Money {
	t.Helper()
	m, err := domain.NewMoney(cents)
	if err != nil {
		t.Fatalf("NewMoney(%d): %v", cents, err)
	}
	return m
}

func TestPerformTransferCompletes(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 15000)
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	auth := &stubAuthorizer{}
	service := NewService(repo, auth)

	transferID, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 10000))
	if err != nil {
		t.Fatalf("PerformTransfer failed: %v", err)
	}
	if transferID == uuid.Nil {
		t.Fatal("expected a transfer ID")
	}

	if got := repo.wallets[payerID].Balance.Cents(); got != 5000 {
		t.Errorf("payer balance = %d, want 5000", got)
	}
	if got := repo.wallets[payeeID].Balance.Cents(); got != 11000 {
		t.Errorf("payee balance = %d, want 11000", got)
	}

	transfer, ok := repo.transfers[transferID]
	if !ok {
		t.Fatal("transfer was not persisted")
	}
	if transfer.Status != domain.TransferCompleted {
		t.Errorf("transfer status = %s, want %s", transfer.Status, domain.TransferCompleted)
	}

	if len(repo.outbox) != 1 {
		t.Fatalf("outbox events = %d, want 1", len(repo.outbox))
	}
	if repo.outbox[0].TransferID != transferID {
		t.Errorf("outbox event references transfer %s, want %s", repo.outbox[0].TransferID, transferID)
	}
	if auth.calls != 1 {
		t.Errorf("authorizer calls = %d, want 1", auth.calls)
	}
}

func TestPerformTransferConservesTotalBalance(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 70000)
	payeeID := repo.addUser(domain.UserTypeCommon, 30000)
	service := NewService(repo, &stubAuthorizer{})

	if _, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 12345)); err != nil {
		t.Fatalf("PerformTransfer failed: %v", err)
	}

	total := repo.wallets[payerID].Balance.Cents() + repo.wallets[payeeID].Balance.Cents()
	if total != 100000 {
		t.Errorf("total balance = %d, want 100000", total)
	}
}

func TestPerformTransferSelfTransferRejectedBeforeLocking(t *testing.T) {
	repo := newFakeRepository()
	userID := repo.addUser(domain.UserTypeCommon, 15000)
	auth := &stubAuthorizer{}
	service := NewService(repo, auth)

	_, err := service.PerformTransfer(context.Background(), userID, userID, money(t, 1000))
	if !errors.Is(err, domain.ErrSelfTransferNotAllowed) {
		t.Fatalf("err = %v, want ErrSelfTransferNotAllowed", err)
	}

	if auth.calls != 0 {
		t.Errorf("authorizer calls = %d, want 0", auth.calls)
	}
	if repo.txCalls != 0 {
		t.Errorf("transactions opened = %d, want 0", repo.txCalls)
	}
	if got := repo.wallets[userID].Balance.Cents(); got != 15000 {
		t.Errorf("balance = %d, want untouched 15000", got)
	}
	if len(repo.outbox) != 0 {
		t.Errorf("outbox events = %d, want 0", len(repo.outbox))
	}
}

func TestPerformTransferMerchantPayerRejected(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeMerchant, 15000)
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	auth := &stubAuthorizer{}
	service := NewService(repo, auth)

	_, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if !errors.Is(err, domain.ErrNotAllowedPayer) {
		t.Fatalf("err = %v, want ErrNotAllowedPayer", err)
	}
	if auth.calls != 0 {
		t.Errorf("authorizer calls = %d, want 0", auth.calls)
	}
	if repo.txCalls != 0 {
		t.Errorf("transactions opened = %d, want 0", repo.txCalls)
	}
}

func TestPerformTransferUnknownPayer(t *testing.T) {
	repo := newFakeRepository()
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	auth := &stubAuthorizer{}
	service := NewService(repo, auth)

	_, err := service.PerformTransfer(context.Background(), uuid.New(), payeeID, money(t, 1000))
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	if repo.userLookups != 1 {
		t.Errorf("user lookups = %d, want 1 (payee never loaded)", repo.userLookups)
	}
	if auth.calls != 0 {
		t.Errorf("authorizer calls = %d, want 0", auth.calls)
	}
	if len(repo.lockedUsers) != 0 {
		t.Errorf("wallet locks = %d, want 0", len(repo.lockedUsers))
	}
}

func TestPerformTransferAuthorizationDenied(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 15000)
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	service := NewService(repo, &stubAuthorizer{err: authclient.ErrNotAuthorized})

	_, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if !errors.Is(err, ErrTransferNotAuthorized) {
		t.Fatalf("err = %v, want ErrTransferNotAuthorized", err)
	}

	if repo.txCalls != 0 {
		t.Errorf("transactions opened = %d, want 0", repo.txCalls)
	}
	if len(repo.lockedUsers) != 0 {
		t.Errorf("wallet locks = %d, want 0", len(repo.lockedUsers))
	}
	if got := repo.wallets[payerID].Balance.Cents(); got != 15000 {
		t.Errorf("payer balance = %d, want untouched 15000", got)
	}
}

func TestPerformTransferAuthorizerUnavailable(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 15000)
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	service := NewService(repo, &stubAuthorizer{err: authclient.ErrUnavailable})

	_, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if !errors.Is(err, ErrTransferServiceUnavailable) {
		t.Fatalf("err = %v, want ErrTransferServiceUnavailable", err)
	}
	if repo.txCalls != 0 {
		t.Errorf("transactions opened = %d, want 0", repo.txCalls)
	}
}

func TestPerformTransferInsufficientBalanceRollsBack(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 1000)
	payeeID := repo.addUser(domain.UserTypeCommon, 500)
	service := NewService(repo, &stubAuthorizer{})

	_, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 2000))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	if got := repo.wallets[payerID].Balance.Cents(); got != 1000 {
		t.Errorf("payer balance = %d, want untouched 1000", got)
	}
	if got := repo.wallets[payeeID].Balance.Cents(); got != 500 {
		t.Errorf("payee balance = %d, want untouched 500", got)
	}
	if len(repo.transfers) != 0 {
		t.Errorf("persisted transfers = %d, want 0 after rollback", len(repo.transfers))
	}
	if len(repo.outbox) != 0 {
		t.Errorf("outbox events = %d, want 0 after rollback", len(repo.outbox))
	}
}

func TestPerformTransferIsNotIdempotent(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 50000)
	payeeID := repo.addUser(domain.UserTypeCommon, 0)
	service := NewService(repo, &stubAuthorizer{})

	first, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if err != nil {
		t.Fatalf("first transfer failed: %v", err)
	}
	second, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if err != nil {
		t.Fatalf("second transfer failed: %v", err)
	}

	if first == second {
		t.Error("identical requests must produce distinct transfer IDs")
	}
	if got := repo.wallets[payerID].Balance.Cents(); got != 48000 {
		t.Errorf("payer balance = %d, want 48000 after two debits", got)
	}
	if len(repo.outbox) != 2 {
		t.Errorf("outbox events = %d, want 2", len(repo.outbox))
	}
}

func TestPerformTransferLocksWalletsInStableOrder(t *testing.T) {
	repo := newFakeRepository()
	userA := repo.addUser(domain.UserTypeCommon, 50000)
	userB := repo.addUser(domain.UserTypeCommon, 50000)
	service := NewService(repo, &stubAuthorizer{})

	if _, err := service.PerformTransfer(context.Background(), userA, userB, money(t, 1000)); err != nil {
		t.Fatalf("A to B transfer failed: %v", err)
	}
	if _, err := service.PerformTransfer(context.Background(), userB, userA, money(t, 1000)); err != nil {
		t.Fatalf("B to A transfer failed: %v", err)
	}

	if len(repo.lockedUsers) != 4 {
		t.Fatalf("wallet locks = %d, want 4", len(repo.lockedUsers))
	}
	if repo.lockedUsers[0] != repo.lockedUsers[2] || repo.lockedUsers[1] != repo.lockedUsers[3] {
		t.Error("opposing transfers must acquire wallet locks in the same order")
	}
	first := repo.lockedUsers[0]
	second := repo.lockedUsers[1]
	if bytes.Compare(first[:], second[:]) > 0 {
		t.Error("locks must be acquired in ascending byte order of account IDs")
	}
}

func TestGetTransfer(t *testing.T) {
	repo := newFakeRepository()
	payerID := repo.addUser(domain.UserTypeCommon, 15000)
	payeeID := repo.addUser(domain.UserTypeCommon, 1000)
	service := NewService(repo, &stubAuthorizer{})

	transferID, err := service.PerformTransfer(context.Background(), payerID, payeeID, money(t, 1000))
	if err != nil {
		t.Fatalf("PerformTransfer failed: %v", err)
	}

	transfer, err := service.GetTransfer(context.Background(), transferID)
	if err != nil {
		t.Fatalf("GetTransfer failed: %v", err)
	}
	if transfer.Status != domain.TransferCompleted {
		t.Errorf("status = %s, want %s", transfer.Status, domain.TransferCompleted)
	}

	if _, err := service.GetTransfer(context.Background(), uuid.New()); !errors.Is(err, store.ErrTransferNotFound) {
		t.Errorf("err = %v, want ErrTransferNotFound", err)
	}
}
