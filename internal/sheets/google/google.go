package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"expenseflow/internal/core"
	ports "expenseflow/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the Sheets exporter.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// valueStore is the subset of the Sheets values API the exporter uses.
type valueStore interface {
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	Update(ctx context.Context, rng string, rows [][]interface{}) error
	Append(ctx context.Context, rng string, rows [][]interface{}) error
}

type Client struct {
	values    valueStore
	sheetName string
}

var _ ports.ExpenseExporter = (*Client)(nil)

// New creates a Sheets exporter authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		values:    &apiValues{svc: svc, spreadsheetID: opts.SpreadsheetID},
		sheetName: sheetName,
	}, nil
}

// newSheetsService initializes a Sheets service from inline service account
// JSON, a credentials file, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(opts.CredentialsJSON))
	file := strings.TrimSpace(opts.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline service account credentials")
	case file != "":
		var err error
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(credentialsJSON))
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Upsert writes the expense into the row whose column A holds its ID, or
// appends a new row. A stored row with a newer version is left alone.
func (c *Client) Upsert(ctx context.Context, e core.Expense, version int64) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}
	if err := c.ensureHeader(ctx); err != nil {
		return false, err
	}

	rows, err := c.values.Get(ctx, c.rng("A:G"))
	if err != nil {
		return false, fmt.Errorf("read sheet: %w", err)
	}
	row := toRow(e, version)

	if idx := findRow(rows, e.ID); idx >= 0 {
		if stored := rowVersion(rows[idx]); stored > version {
			slog.InfoContext(ctx, "Skipping stale expense row",
				"id", e.ID,
				"version", version,
				"stored_version", stored)
			return false, nil
		}
		target := c.rng(fmt.Sprintf("A%d:G%d", idx+1, idx+1))
		if err := c.values.Update(ctx, target, [][]interface{}{row}); err != nil {
			return false, fmt.Errorf("update row %d: %w", idx+1, err)
		}
		slog.InfoContext(ctx, "Updated expense row", "id", e.ID, "row", idx+1)
		return true, nil
	}

	if err := c.values.Append(ctx, c.rng("A:G"), [][]interface{}{row}); err != nil {
		return false, fmt.Errorf("append row: %w", err)
	}
	slog.InfoContext(ctx, "Appended expense row", "id", e.ID)
	return true, nil
}

// Delete blanks the row holding id down to its ID and version, appending such a
// tombstone row when none exists. Later upserts with an older version skip it.
func (c *Client) Delete(ctx context.Context, id int64, version int64) (bool, error) {
	if err := c.ensureHeader(ctx); err != nil {
		return false, err
	}
	rows, err := c.values.Get(ctx, c.rng("A:G"))
	if err != nil {
		return false, fmt.Errorf("read sheet: %w", err)
	}
	row := tombstoneRow(id, version)

	idx := findRow(rows, id)
	if idx < 0 {
		if err := c.values.Append(ctx, c.rng("A:G"), [][]interface{}{row}); err != nil {
			return false, fmt.Errorf("append tombstone: %w", err)
		}
		slog.InfoContext(ctx, "Recorded deletion of unexported expense", "id", id, "version", version)
		return true, nil
	}
	if stored := rowVersion(rows[idx]); stored > version {
		slog.InfoContext(ctx, "Skipping stale delete", "id", id, "version", version, "stored_version", stored)
		return false, nil
	}
	target := c.rng(fmt.Sprintf("A%d:G%d", idx+1, idx+1))
	if err := c.values.Update(ctx, target, [][]interface{}{row}); err != nil {
		return false, fmt.Errorf("blank row %d: %w", idx+1, err)
	}
	slog.InfoContext(ctx, "Deleted expense row", "id", id, "row", idx+1)
	return true, nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	rows, err := c.values.Get(ctx, c.rng("A1:G1"))
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && cell(rows[0], 0) == ports.Header[0] {
		return nil
	}
	header := make([]interface{}, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	if err := c.values.Update(ctx, c.rng("A1:G1"), [][]interface{}{header}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("'%s'!%s", c.sheetName, cells)
}

func toRow(e core.Expense, version int64) []interface{} {
	return []interface{}{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Title,
		string(e.Category),
		e.Amount.Units(),
		e.Description,
		strconv.FormatInt(version, 10),
	}
}

// tombstoneRow keeps only the ID and version so the row still orders events.
func tombstoneRow(id, version int64) []interface{} {
	return []interface{}{strconv.FormatInt(id, 10), "", "", "", "", "", strconv.FormatInt(version, 10)}
}

// findRow returns the zero-based index of the data row whose first cell is id.
func findRow(rows [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], 0) == want {
			return i
		}
	}
	return -1
}

func rowVersion(row []interface{}) int64 {
	v, err := strconv.ParseInt(cell(row, 6), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// apiValues adapts the generated Sheets client to valueStore.
type apiValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (a *apiValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *apiValues) Update(ctx context.Context, rng string, rows [][]interface{}) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (a *apiValues) Append(ctx context.Context, rng string, rows [][]interface{}) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}
