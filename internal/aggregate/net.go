package aggregate

import (
	"github.com/shopspring/decimal"

	"ledgerview/internal/core"
)

// NetTotal is the sum of debits minus the sum of credits.
func NetTotal(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Signed())
	}
	return total
}
