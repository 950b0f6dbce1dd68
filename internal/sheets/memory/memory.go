package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"purchases/internal/core"
	ports "purchases/internal/sheets"
)

// SeedFile is the CSV read by NewFromFiles.
const SeedFile = "seed_transactions.csv"

// Store keeps raw sheet cells in memory and cleans them on every Load, the
// same way the spreadsheet-backed sources do.
type Store struct {
	mu     sync.Mutex
	id     string
	header []string
	rows   [][]string
	loads  int
	err    error
}

var _ ports.TableSource = (*Store)(nil)

// New creates a store over a header row and raw data rows.
func New(id string, header []string, rows [][]string) *Store {
	s := &Store{id: id}
	s.Replace(header, rows)
	return s
}

// NewFromFiles reads base/seed_transactions.csv. A missing or empty file
// yields the built-in sample dataset; a file that cannot be read or parsed
// makes every Load fail with that error.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, SeedFile)
	header, rows, err := readCSV(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return New("memory:sample", SampleHeader(), SampleRows())
	case err != nil:
		return &Store{id: "memory:" + path, err: err}
	case header == nil:
		return New("memory:sample", SampleHeader(), SampleRows())
	}
	return New("memory:"+path, header, rows)
}

// Replace swaps the stored cells and clears any seed read error. Tables
// already loaded are unaffected.
func (s *Store) Replace(header []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.header = append([]string(nil), header...)
	s.rows = make([][]string, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]string(nil), r...)
	}
}

// SourceID returns the identity given at construction.
func (s *Store) SourceID() string { return s.id }

// Load builds a fresh table from the stored cells.
func (s *Store) Load(_ context.Context) (*core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, core.NewDataLoadError(s.id, s.err)
	}
	if len(s.header) == 0 {
		return nil, core.NewDataLoadError(s.id, core.ErrEmptySheet)
	}
	return ports.BuildTable(s.id, s.header, s.rows)
}

// Loads reports how many times Load ran.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}
