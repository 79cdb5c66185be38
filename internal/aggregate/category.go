package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerview/internal/core"
)

const (
	// NonZero hides categories whose net is exactly zero.
	NonZero ViewMode = "nonZero"
	// PositiveOnly hides categories whose net is zero or negative.
	PositiveOnly ViewMode = "positiveOnly"
)

// ViewMode selects which category totals survive into a breakdown.
type ViewMode string

var ErrUnknownViewMode = errors.New("unknown view mode")

// CategoryTotal is one slice of a category breakdown.
type CategoryTotal struct {
	Category core.Category   `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color"`
}

var viewModes = map[ViewMode]func(decimal.Decimal) bool{
	NonZero:      func(d decimal.Decimal) bool { return !d.IsZero() },
	PositiveOnly: func(d decimal.Decimal) bool { return d.IsPositive() },
}

func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nonzero", "non-zero", "non_zero":
		return NonZero, nil
	case "positiveonly", "positive-only", "positive_only", "positive":
		return PositiveOnly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, s)
	}
}

// CategoryTotals nets transactions per known category, in the fixed category
// order, and drops the entries the view mode hides. Transactions with a
// category outside the known set are ignored.
func CategoryTotals(txs []core.Transaction, mode ViewMode) ([]CategoryTotal, error) {
	keep, ok := viewModes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownViewMode, string(mode))
	}

	sums := map[core.Category]decimal.Decimal{}
	for _, t := range txs {
		if !t.Category.Known() {
			continue
		}
		sum, ok := sums[t.Category]
		if !ok {
			sum = decimal.Zero
		}
		sums[t.Category] = sum.Add(t.Signed())
	}

	out := []CategoryTotal{}
	for _, c := range core.Categories() {
		total, ok := sums[c]
		if !ok || !keep(total) {
			continue
		}
		color, err := core.CategoryColor(c)
		if err != nil {
			return nil, err
		}
		out = append(out, CategoryTotal{Category: c, Total: total, Color: color})
	}
	return out, nil
}
