package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/service"
)

const reportSheet = "Reporte"

// spreadsheetAPI is the part of the Sheets service the writer calls.
type spreadsheetAPI interface {
	Get(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error)
	Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// Writer implements service.ReportWriter for Google Sheets.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	loc    *time.Location
	config Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(serviceAPI{srv: srv}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	loc, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		api:    api,
		config: config,
		logger: logger,
		loc:    loc,
	}
}

// Write replaces the contents of the report sheet with r.
func (w *Writer) Write(ctx context.Context, r service.LedgerReport) error {
	w.logger.Info("starting report generation",
		"entries", len(r.Entries),
		"date_range", rangeLabel(r.DateRange))

	retryOpts := service.RetryOptions{
		MaxAttempts:  max(w.config.RetryAttempts, 1),
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var spreadsheetID string
	var sheetID int64
	err := common.WithRetry(ctx, func() error {
		var getErr error
		spreadsheetID, sheetID, getErr = w.getOrCreateSpreadsheet(ctx)
		return getErr
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := common.WithRetry(ctx, func() error {
		return w.api.Clear(ctx, spreadsheetID, reportSheet+"!A:Z")
	}, retryOpts); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := reportValues(r, w.loc)

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.api.BatchUpdate(ctx, spreadsheetID, formatRequests(sheetID, len(values), len(r.BySubtype)))
		}, retryOpts)
		if err != nil {
			// The data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report generation completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the configured spreadsheet, adding the report
// sheet when it is missing, or creates a new spreadsheet.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID != "" {
		existing, err := w.api.Get(ctx, w.config.SpreadsheetID)
		if err != nil {
			return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		if id, ok := findSheet(existing, reportSheet); ok {
			return w.config.SpreadsheetID, id, nil
		}

		id := nextSheetID(existing)
		err = w.api.BatchUpdate(ctx, w.config.SpreadsheetID, []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{SheetId: id, Title: reportSheet},
			},
		}})
		if err != nil {
			return "", 0, fmt.Errorf("unable to add sheet %q: %w", reportSheet, err)
		}
		return w.config.SpreadsheetID, id, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
			Locale:   "es_CL",
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: reportSheet,
				},
			},
		},
	}

	created, err := w.api.Create(ctx, spreadsheet)
	if err != nil {
		return "", 0, common.Permanent(fmt.Errorf("unable to create spreadsheet: %w", err))
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later writes go to the same spreadsheet.
	w.config.SpreadsheetID = created.SpreadsheetId
	id, _ := findSheet(created, reportSheet)
	return created.SpreadsheetId, id, nil
}

func findSheet(s *sheets.Spreadsheet, title string) (int64, bool) {
	for _, sh := range s.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true
		}
	}
	return 0, false
}

func nextSheetID(s *sheets.Spreadsheet) int64 {
	var id int64
	for _, sh := range s.Sheets {
		if sh.Properties != nil && sh.Properties.SheetId >= id {
			id = sh.Properties.SheetId + 1
		}
	}
	return id
}

// writeData writes the rows in batches to stay under the API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", reportSheet, i+1)
		if err := w.api.Update(ctx, spreadsheetID, rangeStr, batch); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// formatRequests bolds the headings, formats the amount columns as pesos,
// freezes the title and resizes the columns.
func formatRequests(sheetID int64, totalRows, subtypeRows int) []*sheets.Request {
	bold := func(startRow, endRow, endCol int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: 0,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}
	pesos := func(startRow, endRow, col int64) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: col,
					EndColumnIndex:   col + 1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: `"$"#,##0`,
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		}
	}

	entriesHeader := int64(subtypeHeaderRow + subtypeRows + 3)
	rows := int64(totalRows)

	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    titleRow,
					EndRowIndex:      titleRow + 1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		bold(totalsHeaderRow, totalsHeaderRow+1, 1),
		pesos(totalsHeaderRow+1, totalsHeaderRow+1+totalsRows, 1),
		bold(subtypeHeaderRow-1, subtypeHeaderRow+1, 4),
		pesos(subtypeHeaderRow+1, subtypeHeaderRow+1+int64(subtypeRows), 3),
		bold(entriesHeader-1, entriesHeader+1, 5),
		pesos(entriesHeader+1, rows, 3),
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 2,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
}

// serviceAPI adapts the generated Sheets client.
type serviceAPI struct {
	srv *sheets.Service
}

func (a serviceAPI) Get(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	s, err := a.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	return s, classifyAPIError(err)
}

func (a serviceAPI) Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	created, err := a.srv.Spreadsheets.Create(s).Context(ctx).Do()
	return created, classifyAPIError(err)
}

func (a serviceAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := a.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return classifyAPIError(err)
}

func (a serviceAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := a.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return classifyAPIError(err)
}

func (a serviceAPI) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	_, err := a.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return classifyAPIError(err)
}

// classifyAPIError maps HTTP failures onto the retry semantics: 429 is a rate
// limit and other client errors are permanent.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return common.Permanent(err)
	default:
		return err
	}
}
