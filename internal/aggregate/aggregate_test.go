package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerview/internal/core"
	"ledgerview/internal/window"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(id string, date time.Time, kind core.Kind, amount string, cat core.Category) core.Transaction {
	return core.Transaction{ID: id, Date: date, Amount: dec(amount), Kind: kind, Category: cat, Merchant: "m-" + id}
}

func day(d int, hh, mm int) time.Time {
	// March 2024: the 4th is a Monday, the 10th a Sunday
	return time.Date(2024, time.March, d, hh, mm, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func weekOf(t *testing.T, ref time.Time) window.Window {
	t.Helper()
	w, err := window.Resolve(ref, window.Week)
	require.NoError(t, err)
	return w
}

func TestWeeklyScenario(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 10, 0), core.Debit, "100", core.Food),
		tx("2", day(6, 18, 30), core.Credit, "30", core.Food),
	}
	w := weekOf(t, day(6, 0, 0))
	subset := FilterByWindow(txs, w)

	assertDecimal(t, "70", NetTotal(subset))

	daily := Daily(subset)
	assertDecimal(t, "100", daily.At(time.Monday))
	assertDecimal(t, "-30", daily.At(time.Wednesday))
	for _, wd := range []time.Weekday{time.Sunday, time.Tuesday, time.Thursday, time.Friday, time.Saturday} {
		assertDecimal(t, "0", daily.At(wd), wd.String())
	}

	cats, err := CategoryTotals(subset, NonZero)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, core.Food, cats[0].Category)
	assertDecimal(t, "70", cats[0].Total)
	assert.Equal(t, "#f54242", cats[0].Color)
}

func TestEmptySnapshot(t *testing.T) {
	for _, g := range []window.Granularity{window.Day, window.Week, window.Month} {
		w, err := window.Resolve(day(6, 0, 0), g)
		require.NoError(t, err)
		subset := FilterByWindow(nil, w)

		assert.Empty(t, subset)
		assertDecimal(t, "0", NetTotal(subset))
		for _, b := range Daily(subset) {
			assertDecimal(t, "0", b.Total, b.Label)
		}
		cats, err := CategoryTotals(subset, NonZero)
		require.NoError(t, err)
		assert.NotNil(t, cats)
		assert.Empty(t, cats)
		assert.Empty(t, GroupByMonth(subset))
	}
}

func TestFilterByWindowBoundaries(t *testing.T) {
	w := weekOf(t, day(6, 0, 0))
	txs := []core.Transaction{
		tx("before", day(3, 23, 59), core.Debit, "1", core.Food),
		tx("start", day(4, 0, 0), core.Debit, "2", core.Food),
		tx("mid", day(7, 12, 0), core.Debit, "3", core.Food),
		tx("end", day(10, 23, 59), core.Debit, "4", core.Food),
		tx("after", day(11, 0, 0), core.Debit, "5", core.Food),
	}

	got := FilterByWindow(txs, w)

	ids := make([]string, len(got))
	for i, tr := range got {
		ids[i] = tr.ID
	}
	assert.Equal(t, []string{"start", "mid", "end"}, ids)
}

func TestFilterByWindowDoesNotMutateInput(t *testing.T) {
	w := weekOf(t, day(6, 0, 0))
	txs := []core.Transaction{
		tx("a", day(12, 0, 0), core.Debit, "1", core.Food),
		tx("b", day(5, 0, 0), core.Debit, "2", core.Food),
	}
	before := append([]core.Transaction(nil), txs...)

	got := FilterByWindow(txs, w)
	require.Len(t, got, 1)
	got[0].ID = "changed"

	assert.Equal(t, before, txs)
}

func TestNetTotalIsAdditive(t *testing.T) {
	a := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "10.10", core.Food),
		tx("2", day(5, 0, 0), core.Credit, "0.20", core.Bills),
	}
	b := []core.Transaction{
		tx("3", day(6, 0, 0), core.Debit, "0.10", core.Shopping),
		tx("4", day(7, 0, 0), core.Credit, "5", core.Others),
		tx("5", day(8, 0, 0), core.Debit, "0.30", core.Debt),
	}
	union := append(append([]core.Transaction(nil), a...), b...)

	assertDecimal(t, "0", NetTotal(nil))
	assert.True(t, NetTotal(union).Equal(NetTotal(a).Add(NetTotal(b))))
	assertDecimal(t, "5.3", NetTotal(union))
}

func TestNetTotalCanGoNegative(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "10", core.Food),
		tx("2", day(4, 0, 0), core.Credit, "25.5", core.Food),
	}
	assertDecimal(t, "-15.5", NetTotal(txs))
}

func TestDailyBucketsReconcileWithNetTotal(t *testing.T) {
	w := weekOf(t, day(6, 0, 0))
	txs := []core.Transaction{
		tx("1", day(4, 8, 0), core.Debit, "12.34", core.Food),
		tx("2", day(5, 9, 0), core.Debit, "0.66", core.Grocery),
		tx("3", day(8, 10, 0), core.Credit, "3", core.Shopping),
		tx("4", day(9, 11, 0), core.Debit, "40", core.Bills),
		tx("5", day(10, 23, 59), core.Debit, "7.5", core.Others),
		tx("6", day(10, 1, 0), core.Credit, "0.5", core.Category("Travel")),
	}
	subset := FilterByWindow(txs, w)

	daily := Daily(subset)
	assert.True(t, daily.Sum().Equal(NetTotal(subset)), "sum=%s net=%s", daily.Sum(), NetTotal(subset))
	assertDecimal(t, "7", daily.At(time.Sunday))
	assertDecimal(t, "40", daily.At(time.Saturday))
}

func TestDailyBucketsFixedOrder(t *testing.T) {
	daily := Daily(nil)
	labels := make([]string, 0, 7)
	for i, b := range daily {
		assert.Equal(t, time.Weekday(i), b.Weekday)
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, labels)
}

func TestDailyDoesNotReFilter(t *testing.T) {
	// Two Mondays a week apart both land in the Monday slot.
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "1", core.Food),
		tx("2", day(11, 0, 0), core.Debit, "2", core.Food),
	}
	assertDecimal(t, "3", Daily(txs).At(time.Monday))
}

func TestCategoryTotalsDropsUnknownCategories(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "10", core.Category("Travel")),
		tx("2", day(4, 0, 0), core.Debit, "5", core.Category("food")),
		tx("3", day(4, 0, 0), core.Debit, "2", core.Grocery),
	}
	for _, mode := range []ViewMode{NonZero, PositiveOnly} {
		cats, err := CategoryTotals(txs, mode)
		require.NoError(t, err)
		require.Len(t, cats, 1, mode)
		assert.Equal(t, core.Grocery, cats[0].Category)
		for _, c := range cats {
			assert.True(t, c.Category.Known())
		}
	}
}

func TestCategoryTotalsViewModes(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "20", core.Bills),
		tx("2", day(5, 0, 0), core.Credit, "20", core.Bills),
		tx("3", day(5, 0, 0), core.Credit, "15", core.Shopping),
		tx("4", day(6, 0, 0), core.Debit, "8", core.Others),
		tx("5", day(6, 0, 0), core.Debit, "3", core.Food),
	}

	nonZero, err := CategoryTotals(txs, NonZero)
	require.NoError(t, err)
	require.Len(t, nonZero, 3)
	assert.Equal(t, []core.Category{core.Food, core.Shopping, core.Others},
		[]core.Category{nonZero[0].Category, nonZero[1].Category, nonZero[2].Category})
	assertDecimal(t, "-15", nonZero[1].Total)

	positive, err := CategoryTotals(txs, PositiveOnly)
	require.NoError(t, err)
	require.Len(t, positive, 2)
	assert.Equal(t, core.Food, positive[0].Category)
	assert.Equal(t, core.Others, positive[1].Category)
	assertDecimal(t, "8", positive[1].Total)
}

func TestCategoryTotalsDebitOnlyVariant(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "20", core.Food),
		tx("2", day(5, 0, 0), core.Credit, "5", core.Food),
	}
	cats, err := CategoryTotals(DebitsOnly(txs), PositiveOnly)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assertDecimal(t, "20", cats[0].Total)
}

func TestCategoryTotalsUnknownMode(t *testing.T) {
	_, err := CategoryTotals(nil, ViewMode("all"))
	assert.ErrorIs(t, err, ErrUnknownViewMode)
}

func TestParseViewMode(t *testing.T) {
	for in, want := range map[string]ViewMode{"nonZero": NonZero, "non-zero": NonZero, "positiveOnly": PositiveOnly, "POSITIVE": PositiveOnly} {
		got, err := ParseViewMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseViewMode("everything")
	assert.ErrorIs(t, err, ErrUnknownViewMode)
}

func TestGroupByMonth(t *testing.T) {
	txs := []core.Transaction{
		tx("1", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), core.Debit, "10", core.Food),
		tx("2", time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), core.Debit, "4", core.Food),
		tx("3", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), core.Credit, "3", core.Bills),
		tx("4", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), core.Debit, "1", core.Others),
		tx("5", time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), core.Debit, "6", core.Food),
	}

	groups := GroupByMonth(txs)

	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
	}
	assert.Equal(t, []string{"February 2024", "December 2023", "March 2024", "February 2023"}, labels)
	require.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "1", groups[0].Transactions[0].ID)
	assert.Equal(t, "3", groups[0].Transactions[1].ID)
	assertDecimal(t, "7", groups[0].Net())
	assert.Equal(t, 2024, groups[0].Year)
	assert.Equal(t, time.February, groups[0].Month)
}

func TestAggregatesAreIdempotent(t *testing.T) {
	txs := []core.Transaction{
		tx("1", day(4, 0, 0), core.Debit, "19.99", core.Food),
		tx("2", day(5, 0, 0), core.Credit, "4.01", core.Grocery),
		tx("3", day(9, 0, 0), core.Debit, "0.01", core.Debt),
	}
	w := weekOf(t, day(6, 0, 0))

	run := func() (string, [7]string, []string) {
		subset := FilterByWindow(txs, w)
		var daily [7]string
		for i, b := range Daily(subset) {
			daily[i] = b.Total.String()
		}
		cats, err := CategoryTotals(subset, NonZero)
		require.NoError(t, err)
		var catStrs []string
		for _, c := range cats {
			catStrs = append(catStrs, string(c.Category)+"="+c.Total.String()+c.Color)
		}
		return NetTotal(subset).String(), daily, catStrs
	}

	n1, d1, c1 := run()
	n2, d2, c2 := run()
	assert.Equal(t, n1, n2)
	assert.Equal(t, d1, d2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, "15.99", n1)
}
