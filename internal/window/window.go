// Package window resolves calendar-aligned date windows.
//
// Each granularity (day, week, month) has its own resolver strategy that
// knows how to align a reference date to a window and how far one
// navigation step moves. Weeks start on Monday.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"ledgerview/internal/core"
)

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

const (
	Previous Direction = "previous"
	Next     Direction = "next"
)

type (
	Granularity string

	Direction string

	// Window is an inclusive range of calendar dates.
	Window struct {
		Start       core.Date   `json:"start"`
		End         core.Date   `json:"end"`
		Granularity Granularity `json:"granularity"`
	}
)

var (
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrUnknownDirection   = errors.New("unknown direction")
)

// Resolver is the strategy interface for one granularity.
type Resolver interface {
	// Resolve aligns the calendar date of ref to its enclosing window.
	Resolve(ref time.Time) Window
	// Step moves a date by n granularity units.
	Step(d core.Date, n int) core.Date
}

var calendar = &now.Config{WeekStartDay: time.Monday}

// DayResolver implements Resolver for single-day windows.
type DayResolver struct{}

func (DayResolver) Resolve(ref time.Time) Window {
	d := core.DateOf(ref)
	return Window{Start: d, End: d, Granularity: Day}
}

func (DayResolver) Step(d core.Date, n int) core.Date {
	return d.AddDays(n)
}

// WeekResolver implements Resolver for Monday-to-Sunday windows.
type WeekResolver struct{}

func (WeekResolver) Resolve(ref time.Time) Window {
	start := core.DateOf(calendar.With(core.DateOf(ref).Time).BeginningOfWeek())
	return Window{Start: start, End: start.AddDays(6), Granularity: Week}
}

func (WeekResolver) Step(d core.Date, n int) core.Date {
	return d.AddDays(7 * n)
}

// MonthResolver implements Resolver for full calendar months.
type MonthResolver struct{}

func (MonthResolver) Resolve(ref time.Time) Window {
	n := calendar.With(core.DateOf(ref).Time)
	return Window{
		Start:       core.DateOf(n.BeginningOfMonth()),
		End:         core.DateOf(n.EndOfMonth()),
		Granularity: Month,
	}
}

// Step expects d to be the first of a month, which is what Resolve returns
// as Start, so the result never spills into the following month.
func (MonthResolver) Step(d core.Date, n int) core.Date {
	return d.AddMonths(n)
}

var resolvers = map[Granularity]Resolver{
	Day:   DayResolver{},
	Week:  WeekResolver{},
	Month: MonthResolver{},
}

// GetResolver returns the resolver for a granularity.
func GetResolver(g Granularity) (Resolver, error) {
	r, ok := resolvers[g]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, string(g))
	}
	return r, nil
}

// Resolve returns the window of granularity g that contains ref.
func Resolve(ref time.Time, g Granularity) (Window, error) {
	r, err := GetResolver(g)
	if err != nil {
		return Window{}, err
	}
	return r.Resolve(ref), nil
}

// Shift returns the window adjacent to w in direction d.
func Shift(w Window, d Direction) (Window, error) {
	r, err := GetResolver(w.Granularity)
	if err != nil {
		return Window{}, err
	}
	var n int
	switch d {
	case Previous:
		n = -1
	case Next:
		n = 1
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownDirection, string(d))
	}
	return r.Resolve(r.Step(w.Start, n).Time), nil
}

// Contains reports whether the calendar date of t falls inside w, bounds included.
func (w Window) Contains(t time.Time) bool {
	d := core.DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days is the number of calendar days covered by w.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start.Time).Hours()/24) + 1
}

// Label is the human-readable title of the window.
func (w Window) Label() string {
	switch w.Granularity {
	case Week:
		return w.Start.Format("January 02") + " - " + w.End.Format("January 02")
	case Month:
		return w.Start.Format("January 2006")
	default:
		return w.Start.Format("Monday, January 02 2006")
	}
}

// ParseGranularity accepts the granularity names and their picker labels
// ("daily", "weekly", "monthly").
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous":
		return Previous, nil
	case "next":
		return Next, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}
