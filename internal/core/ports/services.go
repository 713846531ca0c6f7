package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// Clock abstracts the time source. The month-rollover logic in the fraud
// metrics depends on "current month"; injecting the clock lets tests walk
// across month boundaries deterministically.
type Clock interface {
	Now() time.Time
}

// OrderQuery is the narrow interface to the external order collaborator.
// Only the completed-order count is consumed, for the refund-ratio rule.
type OrderQuery interface {
	CompletedOrderCount(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// OrderCountCache is the Redis fast path in front of OrderQuery.
type OrderCountCache interface {
	// Get returns the cached count, or found=false on a miss.
	Get(ctx context.Context, customerID uuid.UUID) (count int64, found bool, err error)
	Set(ctx context.Context, customerID uuid.UUID, count int64, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// WalletService is the only entry point external collaborators use for
// mutating a wallet. It owns concurrency control: operations against one
// wallet are serialized, operations against different wallets run in
// parallel.
type WalletService interface {
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error)
	Credit(ctx context.Context, req CreditRequest) (*domain.Transaction, error)
	Debit(ctx context.Context, req DebitRequest) (*domain.Transaction, error)
	CreditRefund(ctx context.Context, req RefundCreditRequest) (*domain.Transaction, error)
	// SetStatus and ClearFlag are the administrative mutations. They run
	// through the same exclusive access path as the money operations so
	// they cannot race a concurrent refund.
	SetStatus(ctx context.Context, customerID uuid.UUID, status domain.WalletStatus) (*domain.WalletAccount, error)
	ClearFlag(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error)
}

// CreditRequest holds validated input for a wallet credit.
type CreditRequest struct {
	CustomerID  uuid.UUID
	Amount      int64
	Description string
	Metadata    domain.Metadata
}

// DebitRequest holds validated input for a wallet debit.
type DebitRequest struct {
	CustomerID  uuid.UUID
	Amount      int64
	Description string
	Metadata    domain.Metadata
}

// RefundCreditRequest holds validated input for a refund credit handed to
// this engine by the order/refund workflow.
type RefundCreditRequest struct {
	CustomerID  uuid.UUID
	Amount      int64
	OrderRef    string
	RefundRef   string
	Description string
	Metadata    domain.Metadata
}

// ReviewService is the read-only surface for administrative triage.
type ReviewService interface {
	GetWallet(ctx context.Context, customerID uuid.UUID) (*domain.WalletAccount, error)
	RecentTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.Transaction, error)
	GetFlaggedWallets(ctx context.Context, limit int) ([]domain.WalletAccount, error)
	GetStatistics(ctx context.Context) (*WalletStatistics, error)
}
