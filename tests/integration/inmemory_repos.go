package integration

import (
	"context"
	"sort"
	"sync"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.WalletAccount // keyed by customer ID
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.WalletAccount)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Same semantics as ON CONFLICT (customer_id) DO NOTHING.
	if _, ok := r.wallets[w.CustomerID]; ok {
		return nil
	}
	cp := *w
	r.wallets[w.CustomerID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[customerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByCustomerIDForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*domain.WalletAccount, error) {
	// Exclusivity comes from the serializing transactor, not from here.
	return r.GetByCustomerID(ctx, customerID)
}

func (r *inMemoryWalletRepo) UpdateState(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.CustomerID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) ListFlagged(ctx context.Context, limit int) ([]domain.WalletAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WalletAccount
	for _, w := range r.wallets {
		if w.Fraud.IsFlagged {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fraud.SuspiciousActivityFlags != out[j].Fraud.SuspiciousActivityFlags {
			return out[i].Fraud.SuspiciousActivityFlags > out[j].Fraud.SuspiciousActivityFlags
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryWalletRepo) GetStatistics(ctx context.Context) (*ports.WalletStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.WalletStatistics{}
	for _, w := range r.wallets {
		stats.TotalWallets++
		stats.TotalBalance += w.Balance
		if w.Status == domain.WalletStatusActive {
			stats.ActiveWallets++
		}
		if w.Fraud.IsFlagged {
			stats.FlaggedWallets++
		}
		stats.TotalRefunds += w.Fraud.TotalRefundsReceived
		stats.TotalRefundAmount += w.Fraud.TotalRefundAmount
	}
	return stats, nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.Transaction
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryLedgerRepo) ListRecent(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].WalletID == walletID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *inMemoryLedgerRepo) RefundExists(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, refundRef string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.entries {
		if r.entries[i].CustomerID == customerID &&
			r.entries[i].RefundRef != nil && *r.entries[i].RefundRef == refundRef {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryLedgerRepo) SumAmounts(ctx context.Context, walletID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for i := range r.entries {
		if r.entries[i].WalletID == walletID {
			sum += r.entries[i].Amount
		}
	}
	return sum, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor emulates the per-wallet pessimistic lock with one
// global mutex: Begin blocks until the previous transaction finishes, so
// concurrent mutations are serialized exactly like SELECT ... FOR UPDATE
// serializes them on a single wallet row.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockTx{release: &t.mu}, nil
}

// lockTx holds the transactor lock until Commit or Rollback, whichever
// comes first.
type lockTx struct {
	release  *sync.Mutex
	doneOnce sync.Once
}

func (t *lockTx) finish() {
	t.doneOnce.Do(t.release.Unlock)
}

func (t *lockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *lockTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *lockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockTx) Conn() *pgx.Conn { return nil }

// --- Stub order service ---

// stubOrderQuery returns a fixed completed-order count per customer.
type stubOrderQuery struct {
	mu     sync.RWMutex
	counts map[uuid.UUID]int64
}

func newStubOrderQuery() *stubOrderQuery {
	return &stubOrderQuery{counts: make(map[uuid.UUID]int64)}
}

func (s *stubOrderQuery) set(customerID uuid.UUID, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[customerID] = count
}

func (s *stubOrderQuery) CompletedOrderCount(ctx context.Context, customerID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[customerID], nil
}
