// Package google exports the dashboard to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"paycheck/internal/log"
	ports "paycheck/internal/sheets"
)

// Config selects the spreadsheet and the credentials used to write it: a
// service account key or an authorized_user token file. CredentialsJSON takes
// precedence over CredentialsFile; with neither set
// GOOGLE_APPLICATION_CREDENTIALS is consulted.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ ports.DashboardExporter = (*Exporter)(nil)

// New creates an exporter authenticated with service account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: id, logger: logger}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON, source, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	creds, err := googleoauth.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse %s credentials: %w", source, err)
	}
	logger.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_source", source,
		"project_id", creds.ProjectID,
		"scope", gsheet.SpreadsheetsScope)

	return gsheet.NewService(ctx, goption.WithCredentials(creds))
}

func loadCredentials(cfg Config) ([]byte, string, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), "inline", nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, "", errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read service account file: %w", err)
	}
	return data, "file", nil
}

// Export overwrites every dashboard tab, creating the ones that are missing.
func (e *Exporter) Export(ctx context.Context, x ports.Export) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tables := ports.BuildTables(x)

	if err := e.ensureTabs(ctx, tables); err != nil {
		return err
	}

	clearReq := &gsheet.BatchClearValuesRequest{Ranges: make([]string, 0, len(tables))}
	for _, t := range tables {
		clearReq.Ranges = append(clearReq.Ranges, sheetRange(t.Name))
	}
	if _, err := e.svc.Spreadsheets.Values.BatchClear(e.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tabs: %w", err)
	}

	update := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             valueRanges(tables),
	}
	if _, err := e.svc.Spreadsheets.Values.BatchUpdate(e.spreadsheetID, update).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write tabs: %w", err)
	}

	e.logger.InfoContext(ctx, "Dashboard exported",
		log.FieldOperation, log.OpExport,
		"spreadsheet_id", e.spreadsheetID,
		"tabs", len(tables))
	return nil
}

func (e *Exporter) ensureTabs(ctx context.Context, tables []ports.Table) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	existing := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing = append(existing, s.Properties.Title)
		}
	}

	wanted := make([]string, len(tables))
	for i, t := range tables {
		wanted[i] = t.Name
	}
	missing := missingTabs(existing, wanted)
	if len(missing) == 0 {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{}
	for _, title := range missing {
		req.Requests = append(req.Requests, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tabs %v: %w", missing, err)
	}
	e.logger.InfoContext(ctx, "Created missing tabs", "tabs", missing)
	return nil
}

// missingTabs returns the wanted titles not present in existing, compared
// case-insensitively as Sheets does.
func missingTabs(existing, wanted []string) []string {
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var out []string
	for _, t := range wanted {
		if !have[strings.ToLower(t)] {
			out = append(out, t)
		}
	}
	return out
}

// sheetRange quotes a tab title for A1 notation.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func valueRanges(tables []ports.Table) []*gsheet.ValueRange {
	out := make([]*gsheet.ValueRange, 0, len(tables))
	for _, t := range tables {
		values := make([][]any, len(t.Rows))
		for i, r := range t.Rows {
			if r == nil {
				r = []any{}
			}
			values[i] = r
		}
		out = append(out, &gsheet.ValueRange{
			Range:          sheetRange(t.Name) + "!A1",
			MajorDimension: "ROWS",
			Values:         values,
		})
	}
	return out
}
