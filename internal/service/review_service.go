package service

import (
	"context"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Review listing bounds: callers can ask for less, never for more.
const (
	defaultFlaggedLimit = 50
	maxFlaggedLimit     = 200
	maxTransactionLimit = 100
)

// ReviewServiceImpl implements ports.ReviewService: the read-only surface
// backing the administrative triage endpoints. It never mutates wallets.
type ReviewServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	log        zerolog.Logger
}

// NewReviewService creates a new ReviewServiceImpl.
func NewReviewService(walletRepo ports.WalletRepository, ledgerRepo ports.LedgerRepository, log zerolog.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		log:        log,
	}
}

// GetWallet returns one wallet for review, including fraud metrics.
func (s *ReviewServiceImpl) GetWallet(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error) {
	wallet, err := s.walletRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}

// RecentTransactions returns the newest ledger entries of a wallet, newest
// first. A non-positive limit falls back to the default page size.
func (s *ReviewServiceImpl) RecentTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.Transaction, error) {
	wallet, err := s.GetWallet(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = domain.DefaultRecentLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	entries, err := s.ledgerRepo.ListRecent(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	return entries, nil
}

// GetFlaggedWallets returns wallets awaiting manual review.
func (s *ReviewServiceImpl) GetFlaggedWallets(ctx context.Context, limit int) ([]domain.WalletAccount, error) {
	if limit <= 0 {
		limit = defaultFlaggedLimit
	}
	if limit > maxFlaggedLimit {
		limit = maxFlaggedLimit
	}

	wallets, err := s.walletRepo.ListFlagged(ctx, limit)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	return wallets, nil
}

// GetStatistics returns the cross-wallet aggregate for dashboards.
func (s *ReviewServiceImpl) GetStatistics(ctx context.Context) (*ports.WalletStatistics, error) {
	stats, err := s.walletRepo.GetStatistics(ctx)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(err)
	}
	return stats, nil
}
