package service

import (
	"testing"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultScorer(t *testing.T) *FraudScorer {
	t.Helper()
	s, err := NewFraudScorer(DefaultMonthlyRefundLimit, DefaultMaxRefundRatio)
	require.NoError(t, err)
	return s
}

func TestNewFraudScorer_InvalidRatio(t *testing.T) {
	_, err := NewFraudScorer(3, "one fifth")
	assert.Error(t, err)

	_, err = NewFraudScorer(-1, "0.2")
	assert.Error(t, err)
}

func TestEvaluate_NoRuleFires(t *testing.T) {
	s := defaultScorer(t)

	d := s.Evaluate(domain.FraudMetrics{
		TotalRefundsReceived: 1,
		RefundsThisMonth:     1,
	}, 10)

	assert.False(t, d.IsFlagged)
	assert.Empty(t, d.FlagReason)
	assert.Equal(t, 0, d.SuspiciousActivityFlags)
}

func TestEvaluate_ExcessiveRefundsRule(t *testing.T) {
	s := defaultScorer(t)

	// Exactly at the limit does not fire; one over does.
	d := s.Evaluate(domain.FraudMetrics{RefundsThisMonth: 3}, 0)
	assert.False(t, d.IsFlagged)

	d = s.Evaluate(domain.FraudMetrics{RefundsThisMonth: 4, TotalRefundsReceived: 4}, 0)
	assert.True(t, d.IsFlagged)
	assert.Equal(t, "Excessive refunds this month (>3 refunds)", d.FlagReason)
	assert.Equal(t, 1, d.SuspiciousActivityFlags)
}

func TestEvaluate_RefundRatioRule(t *testing.T) {
	s := defaultScorer(t)

	// 3 refunds over 10 completed orders is 30%, strictly above 20%.
	d := s.Evaluate(domain.FraudMetrics{TotalRefundsReceived: 3, RefundsThisMonth: 1}, 10)
	assert.True(t, d.IsFlagged)
	assert.Equal(t, "High refund ratio (30.0%)", d.FlagReason)
	assert.Equal(t, 1, d.SuspiciousActivityFlags)

	// Exactly 20% does not fire: the comparison is strict.
	d = s.Evaluate(domain.FraudMetrics{TotalRefundsReceived: 2, RefundsThisMonth: 1}, 10)
	assert.False(t, d.IsFlagged)
}

func TestEvaluate_RatioRuleDisabledWithoutOrders(t *testing.T) {
	s := defaultScorer(t)

	// Unknown or zero completed orders disables the ratio rule entirely.
	d := s.Evaluate(domain.FraudMetrics{TotalRefundsReceived: 50, RefundsThisMonth: 1}, 0)
	assert.False(t, d.IsFlagged)
}

func TestEvaluate_BothRulesFire_LastReasonWins(t *testing.T) {
	s := defaultScorer(t)

	d := s.Evaluate(domain.FraudMetrics{TotalRefundsReceived: 5, RefundsThisMonth: 5}, 10)
	assert.True(t, d.IsFlagged)
	assert.Equal(t, 2, d.SuspiciousActivityFlags, "both rules add a flag")
	assert.Equal(t, "High refund ratio (50.0%)", d.FlagReason, "ratio rule evaluates last and wins the reason")
}

func TestEvaluate_FlagIsSticky(t *testing.T) {
	s := defaultScorer(t)
	last := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	// First refund of a new month with a healthy ratio: no rule fires, but
	// the previously set flag must survive.
	d := s.Evaluate(domain.FraudMetrics{
		TotalRefundsReceived:    1,
		RefundsThisMonth:        1,
		LastRefundDate:          &last,
		IsFlagged:               true,
		FlagReason:              "Excessive refunds this month (>3 refunds)",
		SuspiciousActivityFlags: 2,
	}, 100)

	assert.True(t, d.IsFlagged)
	assert.Equal(t, "Excessive refunds this month (>3 refunds)", d.FlagReason)
	assert.Equal(t, 2, d.SuspiciousActivityFlags)
}

func TestEvaluate_CumulativeFlagsAcrossCalls(t *testing.T) {
	s := defaultScorer(t)

	m := domain.FraudMetrics{TotalRefundsReceived: 4, RefundsThisMonth: 4}
	d := s.Evaluate(m, 0)
	require.Equal(t, 1, d.SuspiciousActivityFlags)

	m.IsFlagged = d.IsFlagged
	m.FlagReason = d.FlagReason
	m.SuspiciousActivityFlags = d.SuspiciousActivityFlags
	m.TotalRefundsReceived = 5
	m.RefundsThisMonth = 5

	d = s.Evaluate(m, 0)
	assert.Equal(t, 2, d.SuspiciousActivityFlags)
}

func TestEvaluate_RatioPercentRendering(t *testing.T) {
	s := defaultScorer(t)

	tests := []struct {
		refunds int64
		orders  int64
		want    string
	}{
		{1, 3, "High refund ratio (33.3%)"},
		{1, 4, "High refund ratio (25.0%)"},
		{2, 3, "High refund ratio (66.7%)"},
		{7, 8, "High refund ratio (87.5%)"},
	}

	for _, tt := range tests {
		d := s.Evaluate(domain.FraudMetrics{TotalRefundsReceived: tt.refunds}, tt.orders)
		assert.Equal(t, tt.want, d.FlagReason, "%d/%d", tt.refunds, tt.orders)
	}
}
