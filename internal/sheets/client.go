package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type Client struct {
	service *sheets.Service
}

func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

// GetRow reads a single row and returns its cell values as strings, in
// column order. Absent cells come back as empty strings.
func (c *Client) GetRow(ctx context.Context, spreadsheetID, sheetName string, rowIndex int) ([]string, error) {
	readRange := fmt.Sprintf("%s!%d:%d", sheetName, rowIndex, rowIndex)
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d: %w", rowIndex, err)
	}

	if len(resp.Values) == 0 {
		return nil, nil
	}
	return coerceRow(resp.Values[0]), nil
}

// GetColumnRange reads a single column from startRow down to the last
// populated row and returns the formatted cell values. Rows past the end of
// data are not represented; callers append after the returned slice.
func (c *Client) GetColumnRange(ctx context.Context, spreadsheetID, sheetName, columnLabel string, startRow int) ([]string, error) {
	readRange := fmt.Sprintf("%s!%s%d:%s", sheetName, columnLabel, startRow, columnLabel)
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s: %w", columnLabel, err)
	}

	values := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 && row[0] != nil {
			values[i] = fmt.Sprintf("%v", row[0])
		}
	}
	return values, nil
}

// SetCell writes a single cell. USER_ENTERED input means the spreadsheet
// interprets the value the way a typed entry would be, so digit strings land
// as numbers.
func (c *Client) SetCell(ctx context.Context, spreadsheetID, sheetName, columnLabel string, rowNumber int, value string) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}

	cellRange := fmt.Sprintf("%s!%s%d", sheetName, columnLabel, rowNumber)
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, cellRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update cell %s: %w", cellRange, err)
	}

	return nil
}

func coerceRow(row []interface{}) []string {
	values := make([]string, len(row))
	for i, cell := range row {
		if cell != nil {
			values[i] = fmt.Sprintf("%v", cell)
		}
	}
	return values
}
