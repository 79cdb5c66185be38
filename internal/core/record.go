package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawTransaction is a transaction as it arrives from an external source,
// before any field has been parsed.
type RawTransaction struct {
	// Line is the 1-based line or row the record came from; 0 when the
	// source has no notion of position.
	Line     int
	ID       string
	Date     string
	Amount   string
	Kind     string
	Category string
	Merchant string
}

// RecordError reports a single rejected record. It matches ErrInvalidInput
// and the underlying field error with errors.Is.
type RecordError struct {
	// Index is the position among the records handed to ParseRecords.
	Index int
	// Line is the source line or row, 0 when unknown.
	Line  int
	ID    string
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	where := fmt.Sprintf("record %d", e.Index)
	if e.Line > 0 {
		where = fmt.Sprintf("line %d", e.Line)
	}
	if e.ID != "" {
		return fmt.Sprintf("%s (id %s): %s: %v", where, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", where, e.Field, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Err}
}

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// ParseDate parses a transaction timestamp in one of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// recordNamespace scopes IDs derived for records that arrive without one.
var recordNamespace = uuid.MustParse("6f1c1f0e-4a57-4b8e-9c55-1d7c2b0f3a10")

// DeriveID returns a stable ID for a record lacking one, so that re-reading
// the same source yields the same IDs.
func DeriveID(r RawTransaction) string {
	key := strings.Join([]string{
		strings.TrimSpace(r.Date),
		strings.TrimSpace(r.Amount),
		strings.ToLower(strings.TrimSpace(r.Kind)),
		strings.TrimSpace(r.Category),
		strings.TrimSpace(r.Merchant),
	}, "|")
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// ParseRecord validates one raw record. The index is only used for error
// reporting. Unknown categories are not an error: they are kept as-is.
func ParseRecord(index int, r RawTransaction) (Transaction, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = DeriveID(r)
	}
	fail := func(field string, err error) (Transaction, error) {
		return Transaction{}, &RecordError{Index: index, Line: r.Line, ID: strings.TrimSpace(r.ID), Field: field, Err: err}
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return fail("date", err)
	}
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return fail("amount", err)
	}
	kind, err := ParseKind(r.Kind)
	if err != nil {
		return fail("kind", err)
	}
	category, err := ParseCategory(r.Category)
	if err != nil && !errors.Is(err, ErrUnknownCategory) {
		return fail("category", err)
	}

	return Transaction{
		ID:       id,
		Date:     date,
		Amount:   amount,
		Kind:     kind,
		Category: category,
		Merchant: strings.TrimSpace(r.Merchant),
	}, nil
}

// ParseRecords validates every record independently. Valid transactions keep
// their input order; each invalid record yields one RecordError and does not
// stop the others from being parsed.
func ParseRecords(raws []RawTransaction) ([]Transaction, []*RecordError) {
	txs := make([]Transaction, 0, len(raws))
	var rejects []*RecordError
	for i, r := range raws {
		t, err := ParseRecord(i, r)
		if err != nil {
			var re *RecordError
			if errors.As(err, &re) {
				rejects = append(rejects, re)
			}
			continue
		}
		txs = append(txs, t)
	}
	return txs, rejects
}

// Raw renders a transaction back into its source form. ParseRecord on the
// result yields an equal transaction.
func (t Transaction) Raw() RawTransaction {
	return RawTransaction{
		ID:       t.ID,
		Date:     t.Date.Format(time.RFC3339Nano),
		Amount:   t.Amount.String(),
		Kind:     string(t.Kind),
		Category: string(t.Category),
		Merchant: t.Merchant,
	}
}
