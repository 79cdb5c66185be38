package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Food     Category = "Food"
	Grocery  Category = "Grocery"
	Shopping Category = "Shopping"
	Bills    Category = "Bills"
	Debt     Category = "Debt"
	Others   Category = "Others"
)

// DefaultColor is what renderers fall back to when they hold a category
// outside the known set. CategoryColor itself never returns it.
const DefaultColor = "#000"

// Category is one of a closed set of spending categories. Values outside the
// set can still appear on transactions read from external sources; they are
// carried through untouched and ignored by category aggregation.
type Category string

var ErrUnknownCategory = errors.New("unknown category")

// categories is the display order used by every category breakdown.
var categories = []Category{Food, Grocery, Shopping, Bills, Debt, Others}

var categoryColors = map[Category]string{
	Food:     "#f54242",
	Grocery:  "#f5a142",
	Shopping: "#f5d142",
	Bills:    "#42f54b",
	Debt:     "#4287f5",
	Others:   "#9b42f5",
}

// labels used by different screens for the same category
var categoryAliases = map[string]Category{
	"food":      Food,
	"grocery":   Grocery,
	"groceries": Grocery,
	"shopping":  Shopping,
	"bills":     Bills,
	"bill":      Bills,
	"debt":      Debt,
	"debts":     Debt,
	"others":    Others,
	"other":     Others,
}

// Categories returns the known categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (c Category) Known() bool {
	_, ok := categoryColors[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory maps a label to its Category. Unknown labels are returned
// trimmed, together with ErrUnknownCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if c, ok := categoryAliases[strings.ToLower(s)]; ok {
		return c, nil
	}
	return Category(s), fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CategoryColor returns the fixed display color of a known category.
func CategoryColor(c Category) (string, error) {
	color, ok := categoryColors[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return color, nil
}
