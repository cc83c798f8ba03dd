package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/model"
	"github.com/hmoraga/recepciones/internal/service"
)

// Worksheet names. The legacy tab carries a typo that shipped years
// ago; sheets that still have it are read and extended in place.
const (
	defaultWorksheet = "OCR Recepciones"
	legacyWorksheet  = "OCR Recepeciones"
)

// SheetsConfig holds the Google Sheets store settings.
type SheetsConfig struct {
	SpreadsheetID string
	Worksheet     string
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSheetsConfig returns a SheetsConfig with sensible defaults.
func DefaultSheetsConfig() SheetsConfig {
	return SheetsConfig{
		Worksheet:     defaultWorksheet,
		BatchSize:     500,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Spreadsheet IDs are often pasted as full URLs; accept both.
var spreadsheetURLRe = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// NormalizeSpreadsheetID extracts the bare ID from a full spreadsheet
// URL, or returns the value unchanged when it already is one.
func NormalizeSpreadsheetID(val string) string {
	if m := spreadsheetURLRe.FindStringSubmatch(val); m != nil {
		return m[1]
	}
	return val
}

// SheetsStore is the Google Sheets implementation of the ledger.
type SheetsStore struct {
	service   *sheets.Service
	logger    *slog.Logger
	config    SheetsConfig
	worksheet string
}

// NewSheetsStore creates the store and resolves the worksheet,
// creating it with the contract header row when it does not exist.
func NewSheetsStore(ctx context.Context, config SheetsConfig, ts oauth2.TokenSource, logger *slog.Logger) (*SheetsStore, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheet_id", common.ErrMissingConfig)
	}
	config.SpreadsheetID = NormalizeSpreadsheetID(config.SpreadsheetID)
	if config.Worksheet == "" {
		config.Worksheet = defaultWorksheet
	}
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	}

	srv, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	s := &SheetsStore{
		service: srv,
		logger:  logger,
		config:  config,
	}
	if err := s.resolveWorksheet(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveWorksheet picks the target tab: the configured name when
// present, the legacy misspelled tab when that is what the sheet has,
// otherwise a freshly created tab with the header row.
func (s *SheetsStore) resolveWorksheet(ctx context.Context) error {
	spreadsheet, err := s.service.Spreadsheets.Get(s.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: unable to open spreadsheet %s: %v",
			common.ErrLedgerUnavailable, s.config.SpreadsheetID, err)
	}

	titles := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sh := range spreadsheet.Sheets {
		titles[sh.Properties.Title] = true
	}
	s.logger.Debug("spreadsheet opened",
		"title", spreadsheet.Properties.Title,
		"worksheets", len(titles))

	switch {
	case titles[s.config.Worksheet]:
		s.worksheet = s.config.Worksheet
	case s.config.Worksheet == defaultWorksheet && titles[legacyWorksheet]:
		s.worksheet = legacyWorksheet
	default:
		if err := s.createWorksheet(ctx); err != nil {
			return err
		}
		s.worksheet = s.config.Worksheet
	}
	return nil
}

func (s *SheetsStore) createWorksheet(ctx context.Context) error {
	_, err := s.service.Spreadsheets.BatchUpdate(s.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: s.config.Worksheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create worksheet %q: %w", s.config.Worksheet, err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	_, err = s.service.Spreadsheets.Values.Append(
		s.config.SpreadsheetID,
		fmt.Sprintf("'%s'!A1", s.config.Worksheet),
		&sheets.ValueRange{Values: [][]any{header}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write header row: %w", err)
	}

	s.logger.Info("created worksheet", "worksheet", s.config.Worksheet)
	return nil
}

// Rows loads the full existing row set. Short rows are quarantined by
// the schema mapping; a missing or malformed header row is fatal.
func (s *SheetsStore) Rows(ctx context.Context) ([]model.Record, error) {
	resp, err := s.service.Spreadsheets.Values.Get(
		s.config.SpreadsheetID,
		fmt.Sprintf("'%s'!A:Z", s.worksheet),
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read worksheet %q: %v",
			common.ErrLedgerUnavailable, s.worksheet, err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		if rec, ok := recordFromRow(row, idx, i+2); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Append writes rows after the existing ones, RAW so SKU strings are
// not reinterpreted as numbers. Batches stay under the API limit and
// each batch is retried on transient failures.
func (s *SheetsStore) Append(ctx context.Context, rows []model.Record) error {
	retryOpts := service.RetryOptions{
		MaxAttempts:  s.config.RetryAttempts,
		InitialDelay: s.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for start := 0; start < len(rows); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([][]any, 0, end-start)
		for _, r := range rows[start:end] {
			values = append(values, rowFromRecord(r))
		}

		err := common.WithRetry(ctx, func() error {
			_, appendErr := s.service.Spreadsheets.Values.Append(
				s.config.SpreadsheetID,
				fmt.Sprintf("'%s'!A1", s.worksheet),
				&sheets.ValueRange{Values: values},
			).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
			return appendErr
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to append batch starting at row %d: %w", start, err)
		}

		s.logger.Debug("appended batch", "rows", len(values))
	}
	return nil
}

// Close implements service.LedgerStore; the Sheets client holds no
// resources to release.
func (s *SheetsStore) Close() error {
	return nil
}
