package service

import (
	"context"
	"errors"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// The engine is single-currency; amounts are fixed-point in the smallest
// unit of this code.
const walletCurrency = "USD"

// WalletServiceImpl implements ports.WalletService.
//
// Concurrency model: every mutating operation locks the wallet row with
// SELECT ... FOR UPDATE inside a database transaction, so the
// read-validate-append-write sequence is serialized per wallet. Operations
// on different wallets never contend.
type WalletServiceImpl struct {
	walletRepo   ports.WalletRepository
	ledgerRepo   ports.LedgerRepository
	transactor   ports.DBTransactor
	orders       ports.OrderQuery
	orderCache   ports.OrderCountCache // nil disables the cache fast path
	scorer       *FraudScorer
	clock        ports.Clock
	metrics      *metrics.Metrics
	orderTimeout time.Duration
	cacheTTL     time.Duration
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	orders ports.OrderQuery,
	orderCache ports.OrderCountCache,
	scorer *FraudScorer,
	clock ports.Clock,
	m *metrics.Metrics,
	orderTimeout time.Duration,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		transactor:   transactor,
		orders:       orders,
		orderCache:   orderCache,
		scorer:       scorer,
		clock:        clock,
		metrics:      m,
		orderTimeout: orderTimeout,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

// GetOrCreate returns the customer's wallet, creating a zero-balance active
// wallet on first access. Never fails with NotFound.
func (s *WalletServiceImpl) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	wallet, err := s.walletRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWalletAccount(customerID, walletCurrency, s.clock.Now())
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}

	// Re-read: a concurrent first access may have won the insert, and the
	// repository resolves that race with an idempotent create.
	created, err := s.walletRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if created == nil {
		return nil, apperror.InternalError(errors.New("wallet missing after idempotent create"))
	}

	s.log.Info().
		Str("customer_id", customerID.String()).
		Str("wallet_id", created.ID.String()).
		Msg("wallet created")

	return created, nil
}

// FindByCustomer is a read-only lookup that fails with NotFound when the
// customer has no wallet yet.
func (s *WalletServiceImpl) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	wallet, err := s.walletRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}

// Credit adds funds to the customer's wallet.
func (s *WalletServiceImpl) Credit(ctx context.Context, req ports.CreditRequest) (entry *domain.Transaction, err error) {
	defer func() { s.metrics.ObserveOperation("credit", err) }()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	entry, err = s.mutate(ctx, req.CustomerID, func(w *domain.WalletAccount) (*domain.Transaction, error) {
		return w.Credit(req.Amount, req.Description, req.Metadata, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAmount("credit", entry.Amount)
	s.log.Info().
		Str("customer_id", req.CustomerID.String()).
		Str("entry_id", entry.ID.String()).
		Int64("amount", req.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg("wallet credited")

	return entry, nil
}

// Debit removes funds. Fails with InsufficientBalance when the wallet
// cannot cover the amount; the ledger and balance stay untouched.
func (s *WalletServiceImpl) Debit(ctx context.Context, req ports.DebitRequest) (entry *domain.Transaction, err error) {
	defer func() { s.metrics.ObserveOperation("debit", err) }()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	entry, err = s.mutate(ctx, req.CustomerID, func(w *domain.WalletAccount) (*domain.Transaction, error) {
		return w.Debit(req.Amount, req.Description, req.Metadata, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAmount("debit", entry.Amount)
	s.log.Info().
		Str("customer_id", req.CustomerID.String()).
		Str("entry_id", entry.ID.String()).
		Int64("amount", req.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg("wallet debited")

	return entry, nil
}

// CreditRefund credits a refund handed over by the order/refund workflow,
// updates the fraud metrics, and scores the wallet. A fraud-scoring failure
// degrades to "not flagged this round"; it never fails the refund credit.
func (s *WalletServiceImpl) CreditRefund(ctx context.Context, req ports.RefundCreditRequest) (entry *domain.Transaction, err error) {
	defer func() { s.metrics.ObserveOperation("refund", err) }()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	description := req.Description
	if description == "" {
		description = "Refund credit"
	}

	var flaggedNow bool
	entry, err = s.mutateTx(ctx, req.CustomerID, func(dbTx pgx.Tx, w *domain.WalletAccount) (*domain.Transaction, error) {
		if req.RefundRef != "" {
			exists, err := s.ledgerRepo.RefundExists(ctx, dbTx, req.CustomerID, req.RefundRef)
			if err != nil {
				return nil, apperror.ErrPersistenceFailure(err)
			}
			if exists {
				return nil, apperror.ErrDuplicateRefund()
			}
		}

		e, err := w.CreditRefund(req.Amount, req.OrderRef, req.RefundRef, description, req.Metadata, s.clock.Now())
		if err != nil {
			return nil, err
		}

		wasFlagged := w.Fraud.IsFlagged
		decision := s.scorer.Evaluate(w.Fraud, s.completedOrders(ctx, req.CustomerID))
		w.Fraud.IsFlagged = decision.IsFlagged
		w.Fraud.FlagReason = decision.FlagReason
		w.Fraud.SuspiciousActivityFlags = decision.SuspiciousActivityFlags
		flaggedNow = decision.IsFlagged && !wasFlagged

		return e, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAmount("refund", entry.Amount)
	if flaggedNow {
		s.metrics.FlaggedTotal.Inc()
		s.log.Warn().
			Str("customer_id", req.CustomerID.String()).
			Str("refund_ref", req.RefundRef).
			Msg("wallet flagged for review")
	}

	s.log.Info().
		Str("customer_id", req.CustomerID.String()).
		Str("entry_id", entry.ID.String()).
		Str("order_ref", req.OrderRef).
		Str("refund_ref", req.RefundRef).
		Int64("amount", req.Amount).
		Msg("refund credited")

	return entry, nil
}

// SetStatus changes the wallet lifecycle state through the same exclusive
// access path as the money operations, so it cannot race a concurrent refund.
func (s *WalletServiceImpl) SetStatus(ctx context.Context, customerID uuid.UUID, status domain.WalletStatus) (*domain.WalletAccount, error) {
	if !status.IsValid() {
		return nil, apperror.Validation("unrecognized wallet status")
	}
	return s.adminMutate(ctx, customerID, func(w *domain.WalletAccount) {
		w.Status = status
		w.UpdatedAt = s.clock.Now()
	})
}

// ClearFlag is the explicit administrative unflag action. The
// suspicious-activity counter is kept as history.
func (s *WalletServiceImpl) ClearFlag(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	return s.adminMutate(ctx, customerID, func(w *domain.WalletAccount) {
		w.Fraud.IsFlagged = false
		w.Fraud.FlagReason = ""
		w.UpdatedAt = s.clock.Now()
	})
}

// mutate runs op on the locked wallet and persists the produced entry plus
// the wallet state as one atomic unit.
func (s *WalletServiceImpl) mutate(ctx context.Context, customerID uuid.UUID, op func(*domain.WalletAccount) (*domain.Transaction, error)) (*domain.Transaction, error) {
	return s.mutateTx(ctx, customerID, func(_ pgx.Tx, w *domain.WalletAccount) (*domain.Transaction, error) {
		return op(w)
	})
}

func (s *WalletServiceImpl) mutateTx(ctx context.Context, customerID uuid.UUID, op func(pgx.Tx, *domain.WalletAccount) (*domain.Transaction, error)) (*domain.Transaction, error) {
	// Lazy wallet creation happens outside the lock; the create is
	// idempotent so concurrent first accesses converge on one row.
	if _, err := s.GetOrCreate(ctx, customerID); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByCustomerIDForUpdate(ctx, dbTx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	entry, err := op(dbTx, wallet)
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if err := s.walletRepo.UpdateState(ctx, dbTx, wallet); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}

	return entry, nil
}

// adminMutate applies a state-only change under the wallet lock, without
// appending a ledger entry.
func (s *WalletServiceImpl) adminMutate(ctx context.Context, customerID uuid.UUID, apply func(*domain.WalletAccount)) (*domain.WalletAccount, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByCustomerIDForUpdate(ctx, dbTx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	apply(wallet)

	if err := s.walletRepo.UpdateState(ctx, dbTx, wallet); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}

	s.log.Info().
		Str("customer_id", customerID.String()).
		Str("status", string(wallet.Status)).
		Bool("is_flagged", wallet.Fraud.IsFlagged).
		Msg("wallet administrative update")

	return wallet, nil
}

// completedOrders resolves the customer's completed-order count for the
// refund-ratio rule: redis fast path first, then the order service with a
// bounded timeout. Any failure degrades to 0, which disables the ratio rule
// for this evaluation without blocking the refund.
func (s *WalletServiceImpl) completedOrders(ctx context.Context, customerID uuid.UUID) int64 {
	if s.orderCache != nil {
		count, found, err := s.orderCache.Get(ctx, customerID)
		if err != nil {
			s.log.Warn().Err(err).Str("customer_id", customerID.String()).Msg("order-count cache read failed")
		} else if found {
			return count
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.orderTimeout)
	defer cancel()

	count, err := s.orders.CompletedOrderCount(lookupCtx, customerID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("customer_id", customerID.String()).
			Msg("completed-order lookup failed, scoring with zero orders")
		return 0
	}

	if s.orderCache != nil {
		if err := s.orderCache.Set(ctx, customerID, count, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("customer_id", customerID.String()).Msg("order-count cache write failed")
		}
	}
	return count
}
