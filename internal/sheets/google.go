package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

const (
	headerRange = "'" + SheetTitle + "'!A1:I1"
	dataRange   = "'" + SheetTitle + "'!A2:I"
	dataStart   = "'" + SheetTitle + "'!A2"
)

type googleService struct {
	api *sheetsapi.Service
}

// NewGoogleService talks to the Sheets API with the user's grant.
func NewGoogleService(ctx context.Context, ts oauth2.TokenSource) (Service, error) {
	api, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &googleService{api: api}, nil
}

func (g *googleService) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	spreadsheet := &sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{Title: title},
		Sheets: []*sheetsapi.Sheet{{
			Properties: &sheetsapi.SheetProperties{
				Title: SheetTitle,
				GridProperties: &sheetsapi.GridProperties{
					RowCount:    1000,
					ColumnCount: 10,
				},
			},
		}},
	}

	resp, err := g.api.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.SpreadsheetId == "" {
		return "", fmt.Errorf("%w: no spreadsheet id returned", ErrMalformedRemoteState)
	}
	return resp.SpreadsheetId, nil
}

func (g *googleService) WriteHeader(ctx context.Context, id string, header []string) error {
	return g.update(ctx, id, headerRange, [][]string{header})
}

// FormatHeader bolds the header row on a blue background.
func (g *googleService) FormatHeader(ctx context.Context, id string) error {
	spreadsheet, err := g.api.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return err
	}

	var sheetID int64
	found := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == SheetTitle {
			sheetID = sheet.Properties.SheetId
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: sheet %q not found", ErrMalformedRemoteState, SheetTitle)
	}

	request := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			RepeatCell: &sheetsapi.RepeatCellRequest{
				Range: &sheetsapi.GridRange{
					SheetId:         sheetID,
					StartRowIndex:   0,
					EndRowIndex:     1,
					ForceSendFields: []string{"SheetId", "StartRowIndex"},
				},
				Cell: &sheetsapi.CellData{
					UserEnteredFormat: &sheetsapi.CellFormat{
						BackgroundColor: &sheetsapi.Color{Red: 0.2, Green: 0.4, Blue: 0.6},
						TextFormat: &sheetsapi.TextFormat{
							ForegroundColor: &sheetsapi.Color{Red: 1, Green: 1, Blue: 1},
							Bold:            true,
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		}},
	}
	_, err = g.api.Spreadsheets.BatchUpdate(id, request).Context(ctx).Do()
	return err
}

func (g *googleService) ReadRows(ctx context.Context, id string) ([][]string, error) {
	resp, err := g.api.Spreadsheets.Values.Get(id, dataRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *googleService) ClearRows(ctx context.Context, id string) error {
	_, err := g.api.Spreadsheets.Values.Clear(id, dataRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleService) WriteRows(ctx context.Context, id string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	return g.update(ctx, id, dataStart, rows)
}

func (g *googleService) update(ctx context.Context, id, rng string, rows [][]string) error {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	_, err := g.api.Spreadsheets.Values.Update(id, rng, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
