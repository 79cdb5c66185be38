package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerview/internal/core"
	"ledgerview/internal/source"
)

// Config selects the spreadsheet and the service-account credentials used to read it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Client reads transactions from a sheet laid out as
// id | date | amount | kind | category | merchant (columns A to F).
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ source.TransactionReader = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}
	return &Client{svc: svc, spreadsheetID: strings.TrimSpace(spreadsheetID), sheetName: sheetName}
}

// newSheetsService initializes a read-only Sheets service from service-account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"component", "sheets",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ReadTransactions reads every row of the sheet. A leading header row is skipped.
func (c *Client) ReadTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	raws := parseRows(resp.Values)
	slog.DebugContext(ctx, "Read transactions from sheet",
		"component", "sheets",
		"range", rng,
		"rows", len(resp.Values),
		"records", len(raws))
	return raws, nil
}

// parseRows maps sheet rows to records. The range starts at A1, so the row
// number is the slice index plus one.
func parseRows(values [][]interface{}) []core.RawTransaction {
	out := make([]core.RawTransaction, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && isHeader(cols) {
			continue
		}
		if allEmpty(cols) {
			continue
		}
		out = append(out, core.RawTransaction{
			Line:     i + 1,
			ID:       safeGet(cols, 0),
			Date:     safeGet(cols, 1),
			Amount:   safeGet(cols, 2),
			Kind:     safeGet(cols, 3),
			Category: safeGet(cols, 4),
			Merchant: safeGet(cols, 5),
		})
	}
	return out
}

func isHeader(cols []string) bool {
	return strings.EqualFold(safeGet(cols, 1), "date") || strings.EqualFold(safeGet(cols, 2), "amount")
}

func allEmpty(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
