// Package sheets mirrors a journal to a per-user Google Sheet and holds the
// authorization state needed to reach it.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/threewords/journal/internal/model"
)

// Service is the slice of the Sheets API the journal needs. Ranges and
// sheet layout are the implementation's concern.
type Service interface {
	// CreateSpreadsheet creates a spreadsheet with an empty journal sheet.
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	WriteHeader(ctx context.Context, id string, header []string) error
	FormatHeader(ctx context.Context, id string) error
	// ReadRows returns every row below the header.
	ReadRows(ctx context.Context, id string) ([][]string, error)
	ClearRows(ctx context.Context, id string) error
	// WriteRows writes rows starting directly below the header.
	WriteRows(ctx context.Context, id string, rows [][]string) error
}

// Table is the journal's view of one user's spreadsheet.
type Table struct {
	svc Service
	now func() time.Time
}

func NewTable(svc Service) *Table {
	return &Table{svc: svc, now: time.Now}
}

// EnsureTable returns existingID when set. Otherwise it creates the
// spreadsheet and writes the header; created reports that the caller must
// persist the new id. A failed header write or header formatting is logged
// and the new spreadsheet is still returned.
func (t *Table) EnsureTable(ctx context.Context, existingID, title string) (id string, created bool, err error) {
	if existingID != "" {
		return existingID, false, nil
	}

	id, err = t.svc.CreateSpreadsheet(ctx, title)
	if err != nil {
		return "", false, fmt.Errorf("failed to create spreadsheet: %w", Classify(err))
	}
	slog.InfoContext(ctx, "spreadsheet created", "spreadsheet_id", id)

	err = t.svc.WriteHeader(ctx, id, Header)
	if err != nil {
		slog.WarnContext(ctx, "failed to write header row", "error", err, "spreadsheet_id", id)
		return id, true, nil
	}

	err = t.svc.FormatHeader(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to format header row", "error", err, "spreadsheet_id", id)
	}
	return id, true, nil
}

// Pull reads every data row in sheet order. Rows that cannot become an entry
// are skipped. An empty id means no spreadsheet exists yet.
func (t *Table) Pull(ctx context.Context, id string) ([]model.Entry, error) {
	if id == "" {
		return []model.Entry{}, nil
	}

	rows, err := t.svc.ReadRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", Classify(err))
	}

	now := t.now()
	entries := make([]model.Entry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		entry, ok := DecodeRow(row, now)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "skipped incomplete spreadsheet rows", "spreadsheet_id", id, "skipped", skipped)
	}
	return entries, nil
}

// Push replaces every data row with entries, in order.
func (t *Table) Push(ctx context.Context, entries []model.Entry, id string) error {
	err := t.svc.ClearRows(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to clear spreadsheet: %w", Classify(err))
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, EncodeRow(e))
	}
	err = t.svc.WriteRows(ctx, id, rows)
	if err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", Classify(err))
	}
	return nil
}
