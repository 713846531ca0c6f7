package dto

import (
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
)

// CreditRequest is the request body for a wallet credit.
type CreditRequest struct {
	Amount      int64             `json:"amount" binding:"required,gt=0"`
	Description string            `json:"description" binding:"required,max=255"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DebitRequest is the request body for a wallet debit.
type DebitRequest struct {
	Amount      int64             `json:"amount" binding:"required,gt=0"`
	Description string            `json:"description" binding:"required,max=255"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RefundCreditRequest is the request body for a refund credit handed over
// by the order/refund workflow.
type RefundCreditRequest struct {
	Amount      int64             `json:"amount" binding:"required,gt=0"`
	OrderRef    string            `json:"order_ref" binding:"required,max=100"`
	RefundRef   string            `json:"refund_ref" binding:"required,max=100"`
	Description string            `json:"description" binding:"max=255"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// StatusUpdateRequest is the request body for an administrative status change.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED CLOSED"`
}

// TransactionResponse is the response body for one ledger entry.
type TransactionResponse struct {
	ID           string            `json:"id"`
	WalletID     string            `json:"wallet_id"`
	CustomerID   string            `json:"customer_id"`
	Type         string            `json:"type"`
	Amount       int64             `json:"amount"`
	BalanceAfter int64             `json:"balance_after"`
	Description  string            `json:"description"`
	OrderRef     *string           `json:"order_ref,omitempty"`
	RefundRef    *string           `json:"refund_ref,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    string            `json:"created_at"`
}

// FraudMetricsResponse mirrors the wallet's fraud metrics for admin review.
type FraudMetricsResponse struct {
	TotalRefundsReceived    int64   `json:"total_refunds_received"`
	TotalRefundAmount       int64   `json:"total_refund_amount"`
	LastRefundDate          *string `json:"last_refund_date,omitempty"`
	RefundsThisMonth        int     `json:"refunds_this_month"`
	RefundsLastMonth        int     `json:"refunds_last_month"`
	SuspiciousActivityFlags int     `json:"suspicious_activity_flags"`
	IsFlagged               bool    `json:"is_flagged"`
	FlagReason              string  `json:"flag_reason,omitempty"`
}

// WalletResponse is the response body for a wallet account.
type WalletResponse struct {
	ID             string               `json:"id"`
	CustomerID     string               `json:"customer_id"`
	Balance        int64                `json:"balance"`
	Currency       string               `json:"currency"`
	Status         string               `json:"status"`
	Fraud          FraudMetricsResponse `json:"fraud_metrics"`
	LastActivityAt *string              `json:"last_activity_at,omitempty"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
}

// WalletListResponse wraps a wallet list.
type WalletListResponse struct {
	Items []WalletResponse `json:"items"`
	Count int              `json:"count"`
}

// TransactionListResponse wraps a ledger entry list, newest first.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Count int                   `json:"count"`
}

// StatisticsResponse is the cross-wallet aggregate for dashboards.
type StatisticsResponse struct {
	TotalWallets      int64 `json:"total_wallets"`
	TotalBalance      int64 `json:"total_balance"`
	ActiveWallets     int64 `json:"active_wallets"`
	FlaggedWallets    int64 `json:"flagged_wallets"`
	TotalRefunds      int64 `json:"total_refunds"`
	TotalRefundAmount int64 `json:"total_refund_amount"`
}

// ToTransactionResponse maps a domain ledger entry to its wire form.
func ToTransactionResponse(e *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           e.ID.String(),
		WalletID:     e.WalletID.String(),
		CustomerID:   e.CustomerID.String(),
		Type:         string(e.Type),
		Amount:       e.Amount,
		BalanceAfter: e.BalanceAfter,
		Description:  e.Description,
		OrderRef:     e.OrderRef,
		RefundRef:    e.RefundRef,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToWalletResponse maps a domain wallet to its wire form.
func ToWalletResponse(w *domain.WalletAccount) WalletResponse {
	return WalletResponse{
		ID:         w.ID.String(),
		CustomerID: w.CustomerID.String(),
		Balance:    w.Balance,
		Currency:   w.Currency,
		Status:     string(w.Status),
		Fraud: FraudMetricsResponse{
			TotalRefundsReceived:    w.Fraud.TotalRefundsReceived,
			TotalRefundAmount:       w.Fraud.TotalRefundAmount,
			LastRefundDate:          formatTimePtr(w.Fraud.LastRefundDate),
			RefundsThisMonth:        w.Fraud.RefundsThisMonth,
			RefundsLastMonth:        w.Fraud.RefundsLastMonth,
			SuspiciousActivityFlags: w.Fraud.SuspiciousActivityFlags,
			IsFlagged:               w.Fraud.IsFlagged,
			FlagReason:              w.Fraud.FlagReason,
		},
		LastActivityAt: formatTimePtr(w.LastActivityAt),
		CreatedAt:      w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ToStatisticsResponse maps the aggregate read model to its wire form.
func ToStatisticsResponse(s *ports.WalletStatistics) StatisticsResponse {
	return StatisticsResponse{
		TotalWallets:      s.TotalWallets,
		TotalBalance:      s.TotalBalance,
		ActiveWallets:     s.ActiveWallets,
		FlaggedWallets:    s.FlaggedWallets,
		TotalRefunds:      s.TotalRefunds,
		TotalRefundAmount: s.TotalRefundAmount,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
