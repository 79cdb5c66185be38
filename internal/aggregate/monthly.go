package aggregate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledgerview/internal/core"
)

// MonthGroup is the list of transactions that fall in one calendar month.
type MonthGroup struct {
	Label        string             `json:"label"`
	Year         int                `json:"year"`
	Month        time.Month         `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
}

// MonthLabel formats a month key as "<MonthName> <Year>", e.g. "March 2024".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}

// GroupByMonth splits txs by calendar month. Groups appear in the order
// their month is first seen; transactions keep their input order.
func GroupByMonth(txs []core.Transaction) []MonthGroup {
	groups := []MonthGroup{}
	index := map[string]int{}
	for _, t := range txs {
		y, m, _ := t.Date.Date()
		label := MonthLabel(y, m)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, MonthGroup{Label: label, Year: y, Month: m})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}

// Net is the net total of the group's transactions.
func (g MonthGroup) Net() decimal.Decimal {
	return NetTotal(g.Transactions)
}
