package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ledgerview/internal/core"
)

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{"id", "date", "amount", "kind", "category", "merchant"}

var (
	ErrMissingColumn = errors.New("missing required column")

	requiredColumns = []string{"date", "amount", "kind", "category"}
)

// ParseCSV reads raw transactions from CSV with a header row. Columns are
// matched by name in any order; id and merchant are optional. Blank lines are
// skipped. Each record carries the file line it started on.
func ParseCSV(r io.Reader) ([]core.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []core.RawTransaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := []core.RawTransaction{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		out = append(out, core.RawTransaction{
			Line:     line,
			ID:       field(row, "id"),
			Date:     field(row, "date"),
			Amount:   field(row, "amount"),
			Kind:     field(row, "kind"),
			Category: field(row, "category"),
			Merchant: field(row, "merchant"),
		})
	}
	return out, nil
}

// WriteCSV writes raw transactions with CSVHeader.
func WriteCSV(w io.Writer, raws []core.RawTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range raws {
		if err := cw.Write([]string{r.ID, r.Date, r.Amount, r.Kind, r.Category, r.Merchant}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CSVFile reads transactions from a CSV file on every call, so edits to the
// file are picked up on the next read.
type CSVFile struct {
	Path string
}

var _ TransactionReader = CSVFile{}

func (f CSVFile) ReadTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer fh.Close()

	raws, err := ParseCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return raws, nil
}
