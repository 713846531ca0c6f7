package domain

import (
	"time"

	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeCredit     TransactionType = "CREDIT"
	TransactionTypeDebit      TransactionType = "DEBIT"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// IsValid reports whether t is one of the four recognized entry kinds.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeCredit, TransactionTypeDebit, TransactionTypeRefund, TransactionTypeAdjustment:
		return true
	}
	return false
}

// Metadata bounds for the per-entry key-value bag. The limits keep the
// ledger schema auditable: no open-ended payloads ride along with money.
const (
	MaxMetadataKeys     = 16
	MaxMetadataKeyLen   = 64
	MaxMetadataValueLen = 256
)

// Metadata is a bounded string-to-string bag attached to a ledger entry.
type Metadata map[string]string

// Validate enforces the metadata bounds.
func (m Metadata) Validate() error {
	if len(m) > MaxMetadataKeys {
		return apperror.ErrInvalidEntry("metadata exceeds key limit")
	}
	for k, v := range m {
		if k == "" || len(k) > MaxMetadataKeyLen {
			return apperror.ErrInvalidEntry("metadata key length out of bounds")
		}
		if len(v) > MaxMetadataValueLen {
			return apperror.ErrInvalidEntry("metadata value length out of bounds")
		}
	}
	return nil
}

// Transaction is an immutable ledger entry. Amounts are signed fixed-point
// deltas in the smallest currency unit; debits are stored negative.
// BalanceAfter checkpoints the wallet balance immediately after this entry,
// so consistency can be verified without replaying the whole ledger.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	Description  string          `json:"description"`
	OrderRef     *string         `json:"order_ref,omitempty"`
	RefundRef    *string         `json:"refund_ref,omitempty"`
	Metadata     Metadata        `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks the entry is well formed for appending.
func (t *Transaction) Validate() error {
	if t.Amount == 0 {
		return apperror.ErrInvalidEntry("amount is zero")
	}
	if t.Description == "" {
		return apperror.ErrInvalidEntry("description is empty")
	}
	if !t.Type.IsValid() {
		return apperror.ErrInvalidEntry("unrecognized transaction type")
	}
	return t.Metadata.Validate()
}

// optionalRef converts a reference string to the stored form; empty means absent.
func optionalRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}
