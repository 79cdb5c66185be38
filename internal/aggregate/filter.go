// Package aggregate computes chart aggregates over a transaction snapshot.
//
// Every function here is pure: inputs are never modified and the same
// inputs always produce the same output. Callers narrow the snapshot with
// FilterByWindow first and then run whichever aggregators they need.
package aggregate

import (
	"ledgerview/internal/core"
	"ledgerview/internal/window"
)

// FilterByWindow returns, in their original order, the transactions whose
// calendar date lies inside w. Both window bounds are inclusive.
func FilterByWindow(txs []core.Transaction, w window.Window) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if w.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// DebitsOnly keeps only debit transactions. Summing its result gives the
// plain expense total that ignores refunds.
func DebitsOnly(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Kind == core.Debit {
			out = append(out, t)
		}
	}
	return out
}
