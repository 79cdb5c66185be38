package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"ledgerview/internal/core"
)

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayBucket holds the net amount for one day of the week.
type DayBucket struct {
	Label   string          `json:"label"`
	Weekday time.Weekday    `json:"weekday"`
	Total   decimal.Decimal `json:"total"`
}

// DailyBuckets is always ordered Sunday to Saturday, whatever day the
// window itself starts on.
type DailyBuckets [7]DayBucket

// Daily spreads net amounts over the day of the week of each transaction.
// It does not look at any window: filter first.
func Daily(txs []core.Transaction) DailyBuckets {
	var b DailyBuckets
	for i := range b {
		b[i] = DayBucket{Label: weekdayLabels[i], Weekday: time.Weekday(i), Total: decimal.Zero}
	}
	for _, t := range txs {
		wd := t.Date.Weekday()
		b[wd].Total = b[wd].Total.Add(t.Signed())
	}
	return b
}

// At returns the total of a given weekday.
func (b DailyBuckets) At(wd time.Weekday) decimal.Decimal {
	return b[wd].Total
}

// Sum adds up all seven buckets.
func (b DailyBuckets) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, d := range b {
		total = total.Add(d.Total)
	}
	return total
}
