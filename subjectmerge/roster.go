package subjectmerge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrNoRoster is returned when a build is requested before a roster is loaded.
	ErrNoRoster = errors.New("no roster loaded")
	// ErrEmptyRoster is returned when the roster text has no header column.
	ErrEmptyRoster = errors.New("roster has no columns")
	// ErrNoIDColumn is returned when no identifier column was chosen.
	ErrNoIDColumn = errors.New("no identifier column selected")
	// ErrUnknownColumn is returned when the identifier column is not in the roster header.
	ErrUnknownColumn = errors.New("identifier column not found in roster")
	// ErrNoSubjects is returned when the identifier column holds no IDs.
	ErrNoSubjects = errors.New("no IDs found in roster")
)

// idColumnCandidates are header names tried, in order, when suggesting the
// identifier column.
var idColumnCandidates = []string{"participant_id", "subject_id", "subject", "id", "participant"}

// Roster is a parsed participants table.
type Roster struct {
	Name    string
	Columns []string
	Rows    []map[string]string
}

// RosterDelimiter returns the field separator implied by the file name.
func RosterDelimiter(name string) rune {
	if strings.EqualFold(filepath.Ext(name), ".tsv") {
		return '\t'
	}
	return ','
}

// ReadRoster parses delimited roster text. The first row is the header.
func ReadRoster(name string, data []byte) (*Roster, error) {
	reader := csv.NewReader(strings.NewReader(DecodeText(data)))
	reader.Comma = RosterDelimiter(name)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(name), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyRoster)
	}
	header := make([]string, 0, len(rows[0]))
	for _, cell := range rows[0] {
		header = append(header, cleanCell(cell))
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), ErrEmptyRoster)
	}
	roster := &Roster{Name: name, Columns: header, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		entry := make(map[string]string, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			if _, dup := entry[col]; dup {
				continue
			}
			entry[col] = row[i]
		}
		roster.Rows = append(roster.Rows, entry)
	}
	return roster, nil
}

// HasColumn reports whether name is one of the roster's columns.
func (r *Roster) HasColumn(name string) bool {
	if r == nil {
		return false
	}
	for _, col := range r.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// IDs returns the trimmed, non-blank values of column in row order.
// Duplicates are kept.
func (r *Roster) IDs(column string) []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		id := strings.TrimSpace(row[column])
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Covariates returns every column other than idColumn, in header order.
func (r *Roster) Covariates(idColumn string) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Columns))
	seen := make(map[string]struct{}, len(r.Columns))
	for _, col := range r.Columns {
		if col == idColumn {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return out
}

// Row returns the first row whose idColumn value equals id.
func (r *Roster) Row(idColumn, id string) (map[string]string, bool) {
	if r == nil {
		return nil, false
	}
	for _, row := range r.Rows {
		if strings.TrimSpace(row[idColumn]) == id {
			return row, true
		}
	}
	return nil, false
}

// SuggestIDColumn picks the most likely identifier column.
func (r *Roster) SuggestIDColumn() string {
	if r == nil || len(r.Columns) == 0 {
		return ""
	}
	for _, cand := range idColumnCandidates {
		for _, col := range r.Columns {
			if strings.EqualFold(col, cand) {
				return col
			}
		}
	}
	return r.Columns[0]
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}
