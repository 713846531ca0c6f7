package service

import (
	"fmt"

	"wallet-ledger-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Default scorer thresholds: more than 3 refunds in a calendar month, or a
// refund-to-completed-order ratio strictly above 20%.
const (
	DefaultMonthlyRefundLimit = 3
	DefaultMaxRefundRatio     = "0.2"
)

// FraudDecision is the outcome of one scoring pass: the flag state the
// caller should apply to the wallet's fraud metrics.
type FraudDecision struct {
	IsFlagged               bool
	FlagReason              string
	SuspiciousActivityFlags int
}

// FraudScorer is a stateless decision function over a wallet's refund
// history. It never mutates wallet state and is safe to call concurrently.
type FraudScorer struct {
	monthlyRefundLimit int
	maxRefundRatio     decimal.Decimal
}

// NewFraudScorer creates a scorer with the given thresholds. maxRefundRatio
// is a decimal string such as "0.2".
func NewFraudScorer(monthlyRefundLimit int, maxRefundRatio string) (*FraudScorer, error) {
	ratio, err := decimal.NewFromString(maxRefundRatio)
	if err != nil {
		return nil, fmt.Errorf("parsing max refund ratio %q: %w", maxRefundRatio, err)
	}
	if monthlyRefundLimit < 0 {
		return nil, fmt.Errorf("monthly refund limit must be non-negative, got %d", monthlyRefundLimit)
	}
	return &FraudScorer{
		monthlyRefundLimit: monthlyRefundLimit,
		maxRefundRatio:     ratio,
	}, nil
}

// Evaluate scores the updated metrics of a wallet that just received a
// refund credit. Rules fire independently and cumulatively: each fired rule
// adds one suspicious-activity flag and the last fired rule's reason wins.
// An existing flag is sticky; no rule here clears it.
func (s *FraudScorer) Evaluate(m domain.FraudMetrics, completedOrders int64) FraudDecision {
	decision := FraudDecision{
		IsFlagged:               m.IsFlagged,
		FlagReason:              m.FlagReason,
		SuspiciousActivityFlags: m.SuspiciousActivityFlags,
	}

	if m.RefundsThisMonth > s.monthlyRefundLimit {
		decision.IsFlagged = true
		decision.FlagReason = fmt.Sprintf("Excessive refunds this month (>%d refunds)", s.monthlyRefundLimit)
		decision.SuspiciousActivityFlags++
	}

	if completedOrders > 0 {
		ratio := decimal.NewFromInt(m.TotalRefundsReceived).Div(decimal.NewFromInt(completedOrders))
		if ratio.GreaterThan(s.maxRefundRatio) {
			percent := ratio.Mul(decimal.NewFromInt(100)).StringFixed(1)
			decision.IsFlagged = true
			decision.FlagReason = fmt.Sprintf("High refund ratio (%s%%)", percent)
			decision.SuspiciousActivityFlags++
		}
	}

	return decision
}
