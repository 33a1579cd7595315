// Package google mirrors ledger rows into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finvue/internal/core"
	"finvue/internal/log"
	ports "finvue/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var (
	_ ports.RowWriter = (*Client)(nil)
	_ ports.RowLister = (*Client)(nil)
)

// Config selects the spreadsheet. Credentials are service account JSON,
// given inline or as a file path.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// ConfigFromEnv reads GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME and the
// service account from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func ConfigFromEnv() Config {
	cfg := Config{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" {
		cfg.CredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return cfg
}

// New builds a client. Extra options are passed to the Sheets service,
// which lets tests point it at a local endpoint.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Transactions"
	}

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger(ctx).InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case cfg.CredentialsJSON != "":
		return []byte(cfg.CredentialsJSON), nil
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) rangeOf(cells string) string {
	return fmt.Sprintf("'%s'!%s", c.sheetName, cells)
}

// Upsert rewrites the row holding tx.ID, or appends one. The header row is
// written first when the sheet is empty.
func (c *Client) Upsert(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		if err := c.appendRow(ctx, ports.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	if row := findRow(ids, tx.ID); row > 0 {
		vr := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(ports.Row(tx))}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rangeOf(fmt.Sprintf("A%d:F%d", row, row)), vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		logger(ctx).DebugContext(ctx, "Mirror row updated", log.FieldTransactionID, tx.ID, "row", row)
		return nil
	}

	if err := c.appendRow(ctx, ports.Row(tx)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	logger(ctx).DebugContext(ctx, "Mirror row appended", log.FieldTransactionID, tx.ID)
	return nil
}

// Delete removes the row holding id.
func (c *Client) Delete(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		logger(ctx).DebugContext(ctx, "Mirror row already absent", log.FieldTransactionID, id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	logger(ctx).DebugContext(ctx, "Mirror row deleted", log.FieldTransactionID, id, "row", row)
	return nil
}

// List reads every mirrored transaction. Unparseable rows are skipped.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A2:F")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	txs, skipped := parseRows(resp.Values)
	if skipped > 0 {
		logger(ctx).WarnContext(ctx, "Skipped unparseable mirror rows", "count", skipped)
	}
	return txs, nil
}

func (c *Client) readIDs(ctx context.Context) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column: %w", err)
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, row []string) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:F"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentSheets)
}
