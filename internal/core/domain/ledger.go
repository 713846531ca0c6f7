package domain

import (
	"iter"

	"wallet-ledger-service/pkg/apperror"
)

// DefaultRecentLimit bounds Recent when the caller passes no limit.
const DefaultRecentLimit = 10

// Ledger holds the ordered, append-only transaction entries of exactly one
// wallet. Entries are never mutated or removed once appended. The Ledger
// validates entries but does not recompute balance; that stays with
// WalletAccount so the balance update is atomic with the append.
type Ledger struct {
	entries []Transaction
}

// Append adds entry to the end of the ledger after validation.
// Timestamps must be non-decreasing within one ledger.
func (l *Ledger) Append(entry Transaction) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if n := len(l.entries); n > 0 && entry.CreatedAt.Before(l.entries[n-1].CreatedAt) {
		return apperror.ErrInvalidEntry("timestamp precedes newest entry")
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Sum returns the signed sum of all entry amounts.
func (l *Ledger) Sum() int64 {
	var total int64
	for i := range l.entries {
		total += l.entries[i].Amount
	}
	return total
}

// Newest returns the most recent entry, or nil for an empty ledger.
func (l *Ledger) Newest() *Transaction {
	if len(l.entries) == 0 {
		return nil
	}
	return &l.entries[len(l.entries)-1]
}

// Recent yields up to limit entries ordered newest-first. The sequence is
// lazy and restartable; iterating has no side effects. A limit <= 0 falls
// back to DefaultRecentLimit.
func (l *Ledger) Recent(limit int) iter.Seq[Transaction] {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return func(yield func(Transaction) bool) {
		for i, n := len(l.entries)-1, 0; i >= 0 && n < limit; i, n = i-1, n+1 {
			if !yield(l.entries[i]) {
				return
			}
		}
	}
}
