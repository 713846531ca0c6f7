package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func newActiveWallet(t *testing.T) *WalletAccount {
	t.Helper()
	return NewWalletAccount(uuid.New(), "USD", date(2024, time.March, 1))
}

func TestTransactionType_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		txType TransactionType
		want   bool
	}{
		{"credit", TransactionTypeCredit, true},
		{"debit", TransactionTypeDebit, true},
		{"refund", TransactionTypeRefund, true},
		{"adjustment", TransactionTypeAdjustment, true},
		{"unknown", TransactionType("CHARGEBACK"), false},
		{"empty", TransactionType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txType.IsValid())
		})
	}
}

func TestMetadata_Validate(t *testing.T) {
	valid := Metadata{"channel": "mobile", "region": "eu-west"}
	assert.NoError(t, valid.Validate())

	tooMany := Metadata{}
	for i := 0; i < MaxMetadataKeys+1; i++ {
		tooMany[strings.Repeat("k", i+1)] = "v"
	}
	assert.Error(t, tooMany.Validate())

	longKey := Metadata{strings.Repeat("k", MaxMetadataKeyLen+1): "v"}
	assert.Error(t, longKey.Validate())

	longValue := Metadata{"k": strings.Repeat("v", MaxMetadataValueLen+1)}
	assert.Error(t, longValue.Validate())

	emptyKey := Metadata{"": "v"}
	assert.Error(t, emptyKey.Validate())
}

func TestLedger_Append_Validation(t *testing.T) {
	base := Transaction{
		ID:          uuid.New(),
		Type:        TransactionTypeCredit,
		Amount:      100,
		Description: "top-up",
		CreatedAt:   date(2024, time.March, 1),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{"valid", func(*Transaction) {}, false},
		{"zero amount", func(e *Transaction) { e.Amount = 0 }, true},
		{"empty description", func(e *Transaction) { e.Description = "" }, true},
		{"unknown type", func(e *Transaction) { e.Type = "SETTLEMENT" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Ledger
			entry := base
			tt.mutate(&entry)
			err := l.Append(entry)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, l.Len(), "failed append must not add an entry")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, l.Len())
			}
		})
	}
}

func TestLedger_Append_RejectsBackwardsTimestamp(t *testing.T) {
	var l Ledger
	first := Transaction{ID: uuid.New(), Type: TransactionTypeCredit, Amount: 10, Description: "a", CreatedAt: date(2024, time.March, 2)}
	require.NoError(t, l.Append(first))

	earlier := Transaction{ID: uuid.New(), Type: TransactionTypeCredit, Amount: 10, Description: "b", CreatedAt: date(2024, time.March, 1)}
	assert.Error(t, l.Append(earlier))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_Recent_NewestFirstAndRestartable(t *testing.T) {
	var l Ledger
	for i := 1; i <= 5; i++ {
		require.NoError(t, l.Append(Transaction{
			ID:          uuid.New(),
			Type:        TransactionTypeCredit,
			Amount:      int64(i),
			Description: "entry",
			CreatedAt:   date(2024, time.March, i),
		}))
	}

	collect := func(limit int) []int64 {
		var amounts []int64
		for e := range l.Recent(limit) {
			amounts = append(amounts, e.Amount)
		}
		return amounts
	}

	assert.Equal(t, []int64{5, 4, 3}, collect(3))
	// Restartable: a second pass yields the same sequence.
	assert.Equal(t, []int64{5, 4, 3}, collect(3))
	// Default limit applies for non-positive values.
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, collect(0))
}

func TestLedger_Recent_EarlyBreak(t *testing.T) {
	var l Ledger
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Append(Transaction{
			ID: uuid.New(), Type: TransactionTypeCredit, Amount: int64(i),
			Description: "entry", CreatedAt: date(2024, time.March, i),
		}))
	}

	var seen int
	for range l.Recent(10) {
		seen++
		if seen == 1 {
			break
		}
	}
	assert.Equal(t, 1, seen)
}

func TestWalletAccount_Credit(t *testing.T) {
	w := newActiveWallet(t)

	entry, err := w.Credit(100, "top-up", nil, date(2024, time.March, 2))
	require.NoError(t, err)

	assert.Equal(t, int64(100), w.Balance)
	assert.Equal(t, int64(100), entry.BalanceAfter)
	assert.Equal(t, TransactionTypeCredit, entry.Type)
	assert.Equal(t, 1, w.Ledger.Len())
	assert.True(t, w.LedgerConsistent())
	require.NotNil(t, w.LastActivityAt)
}

func TestWalletAccount_Credit_InvalidAmount(t *testing.T) {
	w := newActiveWallet(t)

	for _, amount := range []int64{0, -5} {
		_, err := w.Credit(amount, "top-up", nil, date(2024, time.March, 2))
		assert.Error(t, err)
	}
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, 0, w.Ledger.Len())
}

func TestWalletAccount_Debit(t *testing.T) {
	w := newActiveWallet(t)
	_, err := w.Credit(100, "top-up", nil, date(2024, time.March, 2))
	require.NoError(t, err)

	entry, err := w.Debit(60, "order payment", nil, date(2024, time.March, 3))
	require.NoError(t, err)

	assert.Equal(t, int64(40), w.Balance)
	assert.Equal(t, int64(-60), entry.Amount, "debits are stored negative")
	assert.Equal(t, int64(40), entry.BalanceAfter)
	assert.True(t, w.LedgerConsistent())
}

func TestWalletAccount_Debit_InsufficientBalance(t *testing.T) {
	w := newActiveWallet(t)
	_, err := w.Credit(100, "top-up", nil, date(2024, time.March, 2))
	require.NoError(t, err)

	_, err = w.Debit(150, "order payment", nil, date(2024, time.March, 3))
	assert.Error(t, err)

	// Failed debit leaves wallet completely unchanged.
	assert.Equal(t, int64(100), w.Balance)
	assert.Equal(t, 1, w.Ledger.Len())
	assert.True(t, w.LedgerConsistent())
}

func TestWalletAccount_InactiveRejectsMutations(t *testing.T) {
	for _, status := range []WalletStatus{WalletStatusSuspended, WalletStatusClosed} {
		w := newActiveWallet(t)
		w.Status = status

		_, err := w.Credit(10, "top-up", nil, date(2024, time.March, 2))
		assert.Error(t, err, "credit on %s wallet", status)

		_, err = w.Debit(10, "charge", nil, date(2024, time.March, 2))
		assert.Error(t, err, "debit on %s wallet", status)

		_, err = w.CreditRefund(10, "O1", "R1", "refund", nil, date(2024, time.March, 2))
		assert.Error(t, err, "refund on %s wallet", status)
	}
}

func TestWalletAccount_CanAfford(t *testing.T) {
	w := newActiveWallet(t)
	_, err := w.Credit(100, "top-up", nil, date(2024, time.March, 2))
	require.NoError(t, err)

	assert.True(t, w.CanAfford(100))
	assert.True(t, w.CanAfford(0))
	assert.False(t, w.CanAfford(101))
	assert.False(t, w.CanAfford(-1))

	// Idempotent read: no mutation between calls.
	assert.Equal(t, w.Balance, w.Balance)
}

func TestWalletAccount_CreditRefund_FirstRefund(t *testing.T) {
	w := newActiveWallet(t)
	now := date(2024, time.March, 5)

	entry, err := w.CreditRefund(50, "O1", "R1", "order rejected by store", nil, now)
	require.NoError(t, err)

	assert.Equal(t, int64(50), w.Balance)
	assert.Equal(t, TransactionTypeRefund, entry.Type)
	require.NotNil(t, entry.OrderRef)
	require.NotNil(t, entry.RefundRef)
	assert.Equal(t, "O1", *entry.OrderRef)
	assert.Equal(t, "R1", *entry.RefundRef)

	assert.Equal(t, int64(1), w.Fraud.TotalRefundsReceived)
	assert.Equal(t, int64(50), w.Fraud.TotalRefundAmount)
	assert.Equal(t, 1, w.Fraud.RefundsThisMonth)
	assert.Equal(t, 0, w.Fraud.RefundsLastMonth)
	require.NotNil(t, w.Fraud.LastRefundDate)
	assert.Equal(t, now, *w.Fraud.LastRefundDate)
}

func TestWalletAccount_CreditRefund_SameMonthIncrements(t *testing.T) {
	w := newActiveWallet(t)

	_, err := w.CreditRefund(10, "O1", "R1", "refund", nil, date(2024, time.March, 5))
	require.NoError(t, err)
	_, err = w.CreditRefund(10, "O2", "R2", "refund", nil, date(2024, time.March, 20))
	require.NoError(t, err)

	assert.Equal(t, 2, w.Fraud.RefundsThisMonth)
	assert.Equal(t, 0, w.Fraud.RefundsLastMonth, "same-month refund must not roll over")
}

func TestWalletAccount_CreditRefund_NewMonthRollsOver(t *testing.T) {
	w := newActiveWallet(t)

	_, err := w.CreditRefund(10, "O1", "R1", "refund", nil, date(2024, time.March, 5))
	require.NoError(t, err)
	_, err = w.CreditRefund(10, "O2", "R2", "refund", nil, date(2024, time.March, 20))
	require.NoError(t, err)
	_, err = w.CreditRefund(10, "O3", "R3", "refund", nil, date(2024, time.April, 2))
	require.NoError(t, err)

	assert.Equal(t, 1, w.Fraud.RefundsThisMonth)
	assert.Equal(t, 2, w.Fraud.RefundsLastMonth)
	assert.Equal(t, int64(3), w.Fraud.TotalRefundsReceived)
}

func TestWalletAccount_CreditRefund_YearApartSameMonthIsNewMonth(t *testing.T) {
	w := newActiveWallet(t)

	_, err := w.CreditRefund(10, "O1", "R1", "refund", nil, date(2024, time.March, 5))
	require.NoError(t, err)
	_, err = w.CreditRefund(10, "O2", "R2", "refund", nil, date(2025, time.March, 5))
	require.NoError(t, err)

	// Full year+month comparison: March 2025 is a new month relative to March 2024.
	assert.Equal(t, 1, w.Fraud.RefundsThisMonth)
	assert.Equal(t, 1, w.Fraud.RefundsLastMonth)
}

func TestWalletAccount_CreditRefund_DecemberToJanuary(t *testing.T) {
	w := newActiveWallet(t)

	_, err := w.CreditRefund(10, "O1", "R1", "refund", nil, date(2024, time.December, 28))
	require.NoError(t, err)
	_, err = w.CreditRefund(10, "O2", "R2", "refund", nil, date(2025, time.January, 3))
	require.NoError(t, err)

	assert.Equal(t, 1, w.Fraud.RefundsThisMonth)
	assert.Equal(t, 1, w.Fraud.RefundsLastMonth)
}

func TestWalletAccount_BalanceInvariantAcrossSequence(t *testing.T) {
	w := newActiveWallet(t)
	now := date(2024, time.March, 1)

	ops := []struct {
		credit bool
		amount int64
	}{
		{true, 500}, {false, 120}, {true, 30}, {false, 200}, {true, 1}, {false, 211},
	}

	for i, op := range ops {
		now = now.Add(time.Hour)
		var err error
		if op.credit {
			_, err = w.Credit(op.amount, "credit", nil, now)
		} else {
			_, err = w.Debit(op.amount, "debit", nil, now)
		}
		require.NoError(t, err, "op %d", i)
		assert.True(t, w.LedgerConsistent(), "invariant after op %d", i)
		assert.GreaterOrEqual(t, w.Balance, int64(0))
	}
	assert.Equal(t, int64(0), w.Balance)
}

func TestWalletStatus_IsValid(t *testing.T) {
	assert.True(t, WalletStatusActive.IsValid())
	assert.True(t, WalletStatusSuspended.IsValid())
	assert.True(t, WalletStatusClosed.IsValid())
	assert.False(t, WalletStatus("FROZEN").IsValid())
}
