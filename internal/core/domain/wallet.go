package domain

import (
	"time"

	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
)

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
	WalletStatusClosed    WalletStatus = "CLOSED"
)

// IsValid reports whether s is a recognized wallet status.
func (s WalletStatus) IsValid() bool {
	switch s {
	case WalletStatusActive, WalletStatusSuspended, WalletStatusClosed:
		return true
	}
	return false
}

// FraudMetrics is derived refund-abuse state, recomputed on every refund
// credit. IsFlagged is sticky: no rule in this engine clears it, only an
// explicit administrative action does.
type FraudMetrics struct {
	TotalRefundsReceived    int64      `json:"total_refunds_received"`
	TotalRefundAmount       int64      `json:"total_refund_amount"`
	LastRefundDate          *time.Time `json:"last_refund_date,omitempty"`
	RefundsThisMonth        int        `json:"refunds_this_month"`
	RefundsLastMonth        int        `json:"refunds_last_month"`
	SuspiciousActivityFlags int        `json:"suspicious_activity_flags"`
	IsFlagged               bool       `json:"is_flagged"`
	FlagReason              string     `json:"flag_reason,omitempty"`
}

// WalletAccount is the unit of atomicity and invariant enforcement for one
// customer's money. One wallet per customer, created lazily on first access,
// never hard-deleted (status moves to CLOSED instead, preserving the ledger
// for audit). Invariant: Balance equals the sum of all ledger entry amounts
// after every committed operation, and never goes negative.
type WalletAccount struct {
	ID             uuid.UUID    `json:"id"`
	CustomerID     uuid.UUID    `json:"customer_id"`
	Balance        int64        `json:"balance"`
	Currency       string       `json:"currency"`
	Status         WalletStatus `json:"status"`
	Fraud          FraudMetrics `json:"fraud_metrics"`
	Ledger         Ledger       `json:"-"`
	LastActivityAt *time.Time   `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewWalletAccount creates a zero-balance active wallet for a customer.
func NewWalletAccount(customerID uuid.UUID, currency string, now time.Time) *WalletAccount {
	return &WalletAccount{
		ID:         uuid.New(),
		CustomerID: customerID,
		Balance:    0,
		Currency:   currency,
		Status:     WalletStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive returns true if the wallet accepts debits and credits.
func (w *WalletAccount) IsActive() bool {
	return w.Status == WalletStatusActive
}

// CanAfford reports whether the balance covers amount. Pure read.
func (w *WalletAccount) CanAfford(amount int64) bool {
	return amount >= 0 && w.Balance >= amount
}

// Credit adds funds. Amount must be strictly positive.
func (w *WalletAccount) Credit(amount int64, description string, md Metadata, now time.Time) (*Transaction, error) {
	if !w.IsActive() {
		return nil, apperror.ErrWalletInactive()
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	return w.applyEntry(TransactionTypeCredit, amount, description, "", "", md, now)
}

// Debit removes funds. Amount must be strictly positive and covered by the
// current balance; the entry is stored with a negated amount.
func (w *WalletAccount) Debit(amount int64, description string, md Metadata, now time.Time) (*Transaction, error) {
	if !w.IsActive() {
		return nil, apperror.ErrWalletInactive()
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !w.CanAfford(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	return w.applyEntry(TransactionTypeDebit, -amount, description, "", "", md, now)
}

// CreditRefund credits a refund and recomputes the fraud metrics. Scoring
// itself happens afterwards in the service layer; this method only maintains
// the counters the scorer reads.
func (w *WalletAccount) CreditRefund(amount int64, orderRef, refundRef, description string, md Metadata, now time.Time) (*Transaction, error) {
	if !w.IsActive() {
		return nil, apperror.ErrWalletInactive()
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	entry, err := w.applyEntry(TransactionTypeRefund, amount, description, orderRef, refundRef, md, now)
	if err != nil {
		return nil, err
	}

	// The rollover decision must read the previous refund date, not the one
	// being written: a wallet with exactly one refund ever must not look like
	// a perpetual new-month rollover.
	prevRefund := w.Fraud.LastRefundDate

	w.Fraud.TotalRefundsReceived++
	w.Fraud.TotalRefundAmount += amount
	if prevRefund == nil || !sameCalendarMonth(*prevRefund, now) {
		w.Fraud.RefundsLastMonth = w.Fraud.RefundsThisMonth
		w.Fraud.RefundsThisMonth = 1
	} else {
		w.Fraud.RefundsThisMonth++
	}
	refundAt := now
	w.Fraud.LastRefundDate = &refundAt

	return entry, nil
}

// LedgerConsistent verifies the balance invariant against the hydrated
// ledger: the stored balance equals the entry sum and matches the newest
// entry's BalanceAfter checkpoint.
func (w *WalletAccount) LedgerConsistent() bool {
	if w.Balance < 0 || w.Balance != w.Ledger.Sum() {
		return false
	}
	if newest := w.Ledger.Newest(); newest != nil && newest.BalanceAfter != w.Balance {
		return false
	}
	return true
}

// applyEntry builds the entry, appends it, and updates balance and activity
// as one in-memory step. On any failure nothing is changed.
func (w *WalletAccount) applyEntry(txType TransactionType, signedAmount int64, description, orderRef, refundRef string, md Metadata, now time.Time) (*Transaction, error) {
	newBalance := w.Balance + signedAmount
	if newBalance < 0 {
		return nil, apperror.ErrInsufficientBalance()
	}

	entry := Transaction{
		ID:           uuid.New(),
		WalletID:     w.ID,
		CustomerID:   w.CustomerID,
		Type:         txType,
		Amount:       signedAmount,
		BalanceAfter: newBalance,
		Description:  description,
		OrderRef:     optionalRef(orderRef),
		RefundRef:    optionalRef(refundRef),
		Metadata:     md,
		CreatedAt:    now,
	}
	if err := w.Ledger.Append(entry); err != nil {
		return nil, err
	}

	w.Balance = newBalance
	activity := now
	w.LastActivityAt = &activity
	w.UpdatedAt = now
	return &entry, nil
}

// sameCalendarMonth compares full year and month. A December-to-January
// transition and a refund one year apart in the same calendar month both
// count as a new month.
func sameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
