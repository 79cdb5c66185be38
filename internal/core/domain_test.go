package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateOfDropsClock(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	cases := []struct {
		in   time.Time
		want Date
	}{
		{time.Date(2024, 3, 4, 23, 59, 59, 0, time.UTC), NewDate(2024, 3, 4)},
		{time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), NewDate(2024, 2, 29)},
		// calendar date is taken in the timestamp's own location
		{time.Date(2024, 3, 4, 1, 0, 0, 0, loc), NewDate(2024, 3, 4)},
	}
	for i, tc := range cases {
		if got := DateOf(tc.in); !got.Equal(tc.want) {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	if got := NewDate(2024, 2, 28).AddDays(1); !got.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("leap day: got %s", got)
	}
	if got := NewDate(2023, 2, 28).AddDays(1); !got.Equal(NewDate(2023, 3, 1)) {
		t.Fatalf("non-leap: got %s", got)
	}
	if got := NewDate(2024, 1, 1).AddMonths(-1); !got.Equal(NewDate(2023, 12, 1)) {
		t.Fatalf("year wrap: got %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 3, 4))
	if err != nil || string(b) != `"2024-03-04"` {
		t.Fatalf("marshal: %s err=%v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-12-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2024, 12, 31)) {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"31/12/2024"`), &d); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 1, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"debit", Debit, true},
		{" CREDIT ", Credit, true},
		{"Debit", Debit, true},
		{"income", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestTransactionSigned(t *testing.T) {
	amt := decimal.RequireFromString("12.50")
	cases := []struct {
		kind Kind
		want string
	}{
		{Debit, "12.5"},
		{Credit, "-12.5"},
		{Kind("transfer"), "0"},
	}
	for _, tc := range cases {
		got := Transaction{Amount: amt, Kind: tc.kind}.Signed()
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s: expected %s, got %s", tc.kind, tc.want, got)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:       "t1",
		Date:     time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		Amount:   decimal.NewFromInt(100),
		Kind:     Debit,
		Category: Food,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zeroAmount := good
	zeroAmount.Amount = decimal.Zero
	if err := zeroAmount.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}

	bads := []Transaction{
		{ID: "", Date: good.Date, Amount: good.Amount, Kind: Debit},
		{ID: "x", Date: time.Time{}, Amount: good.Amount, Kind: Debit},
		{ID: "x", Date: good.Date, Amount: decimal.NewFromInt(-1), Kind: Debit},
		{ID: "x", Date: good.Date, Amount: good.Amount, Kind: "refund"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
