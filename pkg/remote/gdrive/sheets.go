package gdrive

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore implements remote.TabularStore on the Sheets v4 API.
type SheetsStore struct {
	Service *sheets.Service
}

// NewSheetsStore builds a Sheets client from the user's token source.
func NewSheetsStore(ctx context.Context, ts oauth2.TokenSource) (*SheetsStore, error) {
	srv, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %v", err)
	}
	return &SheetsStore{Service: srv}, nil
}

// CreateSpreadsheet creates a spreadsheet with one named sheet per title.
func (s *SheetsStore) CreateSpreadsheet(ctx context.Context, title string, sheetTitles []string) (string, error) {
	tabs := make([]*sheets.Sheet, 0, len(sheetTitles))
	for _, t := range sheetTitles {
		tabs = append(tabs, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: t},
		})
	}

	resp, err := s.Service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets:     tabs,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet %q: %v", title, err)
	}
	return resp.SpreadsheetId, nil
}

// WriteHeaderRows writes and formats row 1 of each sheet: bold white text on
// a blue background, with the row frozen.
func (s *SheetsStore) WriteHeaderRows(ctx context.Context, spreadsheetID string, headers map[string][]string) error {
	meta, err := s.Service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet %s: %v", spreadsheetID, err)
	}

	sheetIDs := make(map[string]int64, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
	}

	headerFormat := &sheets.CellFormat{
		BackgroundColor: &sheets.Color{Red: 0.2, Green: 0.3, Blue: 0.5},
		TextFormat: &sheets.TextFormat{
			Bold:            true,
			ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
		},
	}

	var reqs []*sheets.Request
	for title, columns := range headers {
		sheetID, ok := sheetIDs[title]
		if !ok {
			return fmt.Errorf("spreadsheet %s has no sheet %q", spreadsheetID, title)
		}

		cells := make([]*sheets.CellData, 0, len(columns))
		for _, col := range columns {
			col := col
			cells = append(cells, &sheets.CellData{
				UserEnteredValue:  &sheets.ExtendedValue{StringValue: &col},
				UserEnteredFormat: headerFormat,
			})
		}

		reqs = append(reqs,
			&sheets.Request{
				UpdateCells: &sheets.UpdateCellsRequest{
					Start: &sheets.GridCoordinate{SheetId: sheetID},
					Rows:  []*sheets.RowData{{Values: cells}},
					Fields: "userEnteredValue,userEnteredFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        sheetID,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		)
	}

	_, err = s.Service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write headers in %s: %v", spreadsheetID, err)
	}
	return nil
}

// AppendRow appends one row after the last data row of a sheet.
func (s *SheetsStore) AppendRow(ctx context.Context, spreadsheetID, sheetTitle string, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	_, err := s.Service.Spreadsheets.Values.Append(spreadsheetID, fmt.Sprintf("%s!A:Z", sheetTitle), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s!%s: %v", spreadsheetID, sheetTitle, err)
	}
	return nil
}

// ReadRows reads every data row of a sheet, skipping the header.
func (s *SheetsStore) ReadRows(ctx context.Context, spreadsheetID, sheetTitle string) ([][]string, error) {
	resp, err := s.Service.Spreadsheets.Values.Get(spreadsheetID, fmt.Sprintf("%s!A2:Z", sheetTitle)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s!%s: %v", spreadsheetID, sheetTitle, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SpreadsheetLink returns the canonical edit URL for a spreadsheet.
func (s *SheetsStore) SpreadsheetLink(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
}
