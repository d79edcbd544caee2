// Package sheetstest provides an in-memory sheets.Service.
package sheetstest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"google.golang.org/api/googleapi"
)

// Spreadsheet is one stored spreadsheet. Header is nil until written.
type Spreadsheet struct {
	Title     string
	Header    []string
	Formatted bool
	Rows      [][]string
}

// Memory keeps spreadsheets in a map. Setting Err makes every call fail
// with it. HeaderErr and FormatErr only fail the header write and header
// formatting.
type Memory struct {
	mu           sync.Mutex
	spreadsheets map[string]*Spreadsheet
	nextID       int

	Err       error
	HeaderErr error
	FormatErr error
	// Calls records the method names in call order.
	Calls []string
}

func NewMemory() *Memory {
	return &Memory{spreadsheets: make(map[string]*Spreadsheet)}
}

// Get returns a copy of a stored spreadsheet.
func (m *Memory) Get(id string) (Spreadsheet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.spreadsheets[id]
	if !ok {
		return Spreadsheet{}, false
	}
	out := *s
	out.Rows = cloneRows(s.Rows)
	return out, true
}

// SetRows replaces the data rows of a spreadsheet, creating it if needed.
func (m *Memory) SetRows(id string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.spreadsheets[id]
	if !ok {
		s = &Spreadsheet{Title: id}
		m.spreadsheets[id] = s
	}
	s.Rows = cloneRows(rows)
}

// Delete removes a spreadsheet, as if it was deleted out of band.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spreadsheets, id)
}

// Count returns how many spreadsheets exist.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spreadsheets)
}

func (m *Memory) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "CreateSpreadsheet")
	if m.Err != nil {
		return "", m.Err
	}
	m.nextID++
	id := fmt.Sprintf("sheet-%d", m.nextID)
	m.spreadsheets[id] = &Spreadsheet{Title: title}
	return id, nil
}

func (m *Memory) WriteHeader(ctx context.Context, id string, header []string) error {
	return m.with("WriteHeader", id, func(s *Spreadsheet) error {
		if m.HeaderErr != nil {
			return m.HeaderErr
		}
		s.Header = slices.Clone(header)
		return nil
	})
}

func (m *Memory) FormatHeader(ctx context.Context, id string) error {
	return m.with("FormatHeader", id, func(s *Spreadsheet) error {
		if m.FormatErr != nil {
			return m.FormatErr
		}
		s.Formatted = true
		return nil
	})
}

func (m *Memory) ReadRows(ctx context.Context, id string) ([][]string, error) {
	var rows [][]string
	err := m.with("ReadRows", id, func(s *Spreadsheet) error {
		rows = cloneRows(s.Rows)
		return nil
	})
	return rows, err
}

func (m *Memory) ClearRows(ctx context.Context, id string) error {
	return m.with("ClearRows", id, func(s *Spreadsheet) error {
		s.Rows = nil
		return nil
	})
}

func (m *Memory) WriteRows(ctx context.Context, id string, rows [][]string) error {
	return m.with("WriteRows", id, func(s *Spreadsheet) error {
		s.Rows = cloneRows(rows)
		return nil
	})
}

func (m *Memory) with(call, id string, fn func(s *Spreadsheet) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, call)
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.spreadsheets[id]
	if !ok {
		return &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}
	}
	return fn(s)
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}
