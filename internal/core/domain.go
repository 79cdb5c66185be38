package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Debit  Kind = "debit"
	Credit Kind = "credit"
)

const dateLayout = "2006-01-02"

type (
	// Kind tells whether a transaction adds to (debit) or offsets (credit) the net expense.
	Kind string

	// Date is a calendar date normalized to midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID       string          `json:"id"`
		Date     time.Time       `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
		Kind     Kind            `json:"kind"`
		Category Category        `json:"category"`
		Merchant string          `json:"merchant"`
	}
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrEmptyID       = errors.New("empty transaction id")
)

// NewDate creates a new Date from year, month, day.
// Out-of-range values are normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// AddDays returns the date n calendar days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths shifts by n calendar months. Callers should pass a first-of-month
// date when they need to stay inside the target month.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

// ParseKind accepts "debit" or "credit" in any letter case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Debit:
		return Debit, nil
	case Credit:
		return Credit, nil
	default:
		return "", ErrInvalidKind
	}
}

// Signed returns the amount with the expense sign applied: debits count
// positive, credits negative. Any other kind contributes nothing.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Kind {
	case Debit:
		return t.Amount
	case Credit:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	switch t.Kind {
	case Debit, Credit:
	default:
		return ErrInvalidKind
	}
	return nil
}
