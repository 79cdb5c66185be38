package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ledgerview/internal/aggregate"
	"ledgerview/internal/core"
	"ledgerview/internal/log"
	"ledgerview/internal/window"
)

// MaxOverviewMonths bounds Overview requests.
const MaxOverviewMonths = 36

var ErrInvalidMonths = fmt.Errorf("months must be between 1 and %d", MaxOverviewMonths)

// SnapshotSource yields the transactions charts are computed from.
type SnapshotSource interface {
	Load(ctx context.Context) (Snapshot, error)
}

type ChartRequest struct {
	// Date is the reference date; zero means today.
	Date        time.Time
	Granularity window.Granularity
	// Direction optionally moves one window back or forward from Date.
	Direction window.Direction
	// Mode selects which categories are shown; empty uses the service default.
	Mode aggregate.ViewMode
	// DebitsOnly restricts the category breakdown to debits.
	DebitsOnly bool
}

type MonthSummary struct {
	Label        string             `json:"label"`
	Year         int                `json:"year"`
	Month        time.Month         `json:"month"`
	Net          decimal.Decimal    `json:"net"`
	Count        int                `json:"count"`
	Transactions []core.Transaction `json:"transactions,omitempty"`
}

type ChartView struct {
	Window       window.Window             `json:"window"`
	Label        string                    `json:"label"`
	Previous     window.Window             `json:"previous"`
	Next         window.Window             `json:"next"`
	Mode         aggregate.ViewMode        `json:"mode"`
	Net          decimal.Decimal           `json:"net"`
	Daily        aggregate.DailyBuckets    `json:"daily"`
	Months       []MonthSummary            `json:"months"`
	Categories   []aggregate.CategoryTotal `json:"categories"`
	Transactions []core.Transaction        `json:"transactions"`
	Rejected     []RejectView              `json:"rejected"`
}

// RejectView identifies a record the source held that failed validation.
type RejectView struct {
	Line   int    `json:"line,omitempty"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// SnapshotView describes the snapshot charts are currently computed from.
type SnapshotView struct {
	Source       string       `json:"source"`
	LoadedAt     time.Time    `json:"loaded_at"`
	Transactions int          `json:"transactions"`
	Rejected     []RejectView `json:"rejected"`
}

// Rejects renders record errors for API responses. The result is never nil.
func Rejects(errs []*core.RecordError) []RejectView {
	out := make([]RejectView, 0, len(errs))
	for _, re := range errs {
		reason := ""
		if re.Err != nil {
			reason = re.Err.Error()
		}
		out = append(out, RejectView{
			Line:   re.Line,
			Index:  re.Index,
			ID:     re.ID,
			Field:  re.Field,
			Reason: reason,
		})
	}
	return out
}

type OverviewView struct {
	From   core.Date       `json:"from"`
	To     core.Date       `json:"to"`
	Net    decimal.Decimal `json:"net"`
	Months []MonthSummary  `json:"months"`
}

// ChartService turns a snapshot into the data behind the charts.
type ChartService struct {
	snapshots   SnapshotSource
	defaultMode aggregate.ViewMode
	logger      *log.Logger
	now         func() time.Time
}

func NewChartService(snapshots SnapshotSource, defaultMode aggregate.ViewMode, logger *log.Logger) *ChartService {
	if defaultMode == "" {
		defaultMode = aggregate.NonZero
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ChartService{
		snapshots:   snapshots,
		defaultMode: defaultMode,
		logger:      logger.WithComponent(log.ComponentChart),
		now:         time.Now,
	}
}

// Window resolves the window a request points at, without loading data.
func (s *ChartService) Window(req ChartRequest) (window.Window, error) {
	ref := req.Date
	if ref.IsZero() {
		ref = s.now()
	}
	w, err := window.Resolve(ref, req.Granularity)
	if err != nil {
		return window.Window{}, err
	}
	if req.Direction != "" {
		if w, err = window.Shift(w, req.Direction); err != nil {
			return window.Window{}, err
		}
	}
	return w, nil
}

// View computes every chart for one window.
func (s *ChartService) View(ctx context.Context, req ChartRequest) (ChartView, error) {
	mode := req.Mode
	if mode == "" {
		mode = s.defaultMode
	}
	mode, err := aggregate.ParseViewMode(string(mode))
	if err != nil {
		return ChartView{}, err
	}

	w, err := s.Window(req)
	if err != nil {
		return ChartView{}, err
	}
	prev, err := window.Shift(w, window.Previous)
	if err != nil {
		return ChartView{}, err
	}
	next, err := window.Shift(w, window.Next)
	if err != nil {
		return ChartView{}, err
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return ChartView{}, fmt.Errorf("load snapshot: %w", err)
	}

	inWindow := aggregate.FilterByWindow(snap.Transactions, w)

	forCategories := inWindow
	if req.DebitsOnly {
		forCategories = aggregate.DebitsOnly(inWindow)
	}
	categories, err := aggregate.CategoryTotals(forCategories, mode)
	if err != nil {
		return ChartView{}, err
	}

	view := ChartView{
		Window:       w,
		Label:        w.Label(),
		Previous:     prev,
		Next:         next,
		Mode:         mode,
		Net:          aggregate.NetTotal(inWindow),
		Daily:        aggregate.Daily(inWindow),
		Months:       summarize(aggregate.GroupByMonth(inWindow)),
		Categories:   categories,
		Transactions: inWindow,
		Rejected:     Rejects(snap.Rejected),
	}

	s.logger.DebugContext(ctx, "Chart view computed",
		log.NewFields().
			WithWindow(string(w.Granularity), w.Start.String(), w.End.String()).
			ToSlice()...)
	return view, nil
}

// Overview returns one summary per calendar month for the given number of
// months ending with the month of ref, oldest first. Months without
// transactions are included with a zero net.
func (s *ChartService) Overview(ctx context.Context, ref time.Time, months int) (OverviewView, error) {
	if months < 1 || months > MaxOverviewMonths {
		return OverviewView{}, ErrInvalidMonths
	}
	if ref.IsZero() {
		ref = s.now()
	}

	last, err := window.Resolve(ref, window.Month)
	if err != nil {
		return OverviewView{}, err
	}
	windows := make([]window.Window, months)
	windows[months-1] = last
	for i := months - 2; i >= 0; i-- {
		if windows[i], err = window.Shift(windows[i+1], window.Previous); err != nil {
			return OverviewView{}, err
		}
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return OverviewView{}, fmt.Errorf("load snapshot: %w", err)
	}

	out := OverviewView{
		From:   windows[0].Start,
		To:     last.End,
		Net:    decimal.Zero,
		Months: make([]MonthSummary, 0, months),
	}
	for _, w := range windows {
		txs := aggregate.FilterByWindow(snap.Transactions, w)
		net := aggregate.NetTotal(txs)
		out.Net = out.Net.Add(net)
		out.Months = append(out.Months, MonthSummary{
			Label: aggregate.MonthLabel(w.Start.Year(), w.Start.Month()),
			Year:  w.Start.Year(),
			Month: w.Start.Month(),
			Net:   net,
			Count: len(txs),
		})
	}
	return out, nil
}

// Snapshot reports the current snapshot and its rejected records.
func (s *ChartService) Snapshot(ctx context.Context) (SnapshotView, error) {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return SnapshotView{}, fmt.Errorf("load snapshot: %w", err)
	}
	return SnapshotView{
		Source:       snap.Source,
		LoadedAt:     snap.LoadedAt,
		Transactions: len(snap.Transactions),
		Rejected:     Rejects(snap.Rejected),
	}, nil
}

func summarize(groups []aggregate.MonthGroup) []MonthSummary {
	out := make([]MonthSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, MonthSummary{
			Label:        g.Label,
			Year:         g.Year,
			Month:        g.Month,
			Net:          g.Net(),
			Count:        len(g.Transactions),
			Transactions: g.Transactions,
		})
	}
	return out
}

// IsRequestError reports whether err was caused by a bad chart request rather
// than by a failing source.
func IsRequestError(err error) bool {
	return errors.Is(err, window.ErrUnknownGranularity) ||
		errors.Is(err, window.ErrUnknownDirection) ||
		errors.Is(err, aggregate.ErrUnknownViewMode) ||
		errors.Is(err, ErrInvalidMonths)
}
