package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

// SheetsDirectory looks up phone numbers in a Google Sheets spreadsheet. The
// first sheet is the directory; the first row is the header, and the
// configured phone column is matched digit-normalized against the input.
type SheetsDirectory struct {
	svc           *sheets.Service
	spreadsheetID string
	phoneColumn   string
	logger        *slog.Logger
}

func NewSheetsDirectory(svc *sheets.Service, spreadsheetID, phoneColumn string, logger *slog.Logger) *SheetsDirectory {
	return &SheetsDirectory{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		phoneColumn:   phoneColumn,
		logger:        logger.With("component", "sheets_directory"),
	}
}

// Find scans rows in sheet order and returns the first record whose phone
// column, digit-normalized, equals the input. The directory is read fresh on
// every call; nothing is cached.
func (d *SheetsDirectory) Find(ctx context.Context, phone string) (*domain.DirectoryRecord, bool, error) {
	meta, err := d.svc.Spreadsheets.Get(d.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, false, &domain.LookupError{Op: "get spreadsheet", Err: err}
	}
	if len(meta.Sheets) == 0 {
		return nil, false, &domain.LookupError{Op: "get spreadsheet", Err: errors.New("spreadsheet has no sheets")}
	}
	sheetTitle := meta.Sheets[0].Properties.Title

	resp, err := d.svc.Spreadsheets.Values.Get(d.spreadsheetID, fmt.Sprintf("'%s'", sheetTitle)).Context(ctx).Do()
	if err != nil {
		return nil, false, &domain.LookupError{Op: "read sheet values", Err: err}
	}

	record, found, err := matchRow(resp.Values, d.phoneColumn, phone)
	if err != nil {
		return nil, false, err
	}
	if !found {
		d.logger.DebugContext(ctx, "No directory row matched", "sheet", sheetTitle, "rows", len(resp.Values))
		return nil, false, nil
	}
	return record, true, nil
}

// matchRow walks the raw value grid (header row first) and builds a record
// for the first row whose phone cell matches the normalized input. A phone
// column absent from the header is a configuration defect, not a miss. Pure
// so the matching rules are testable without a Sheets client.
func matchRow(values [][]interface{}, phoneColumn, phone string) (*domain.DirectoryRecord, bool, error) {
	if len(values) < 2 {
		return nil, false, nil
	}

	header := make([]string, 0, len(values[0]))
	for _, cell := range values[0] {
		header = append(header, fmt.Sprint(cell))
	}

	phoneIdx := -1
	for i, col := range header {
		if col == phoneColumn {
			phoneIdx = i
			break
		}
	}
	if phoneIdx == -1 {
		return nil, false, &domain.LookupError{Op: "column " + phoneColumn, Err: domain.ErrColumnNotInSchema}
	}

	wantDigits := domain.DigitsOnly(phone)
	for _, row := range values[1:] {
		if phoneIdx >= len(row) {
			continue
		}
		rowDigits := domain.DigitsOnly(fmt.Sprint(row[phoneIdx]))
		if rowDigits == "" || rowDigits != wantDigits {
			continue
		}

		rowValues := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rowValues[col] = fmt.Sprint(row[i])
			}
		}
		return domain.NewDirectoryRecord(header, rowValues), true, nil
	}
	return nil, false, nil
}
