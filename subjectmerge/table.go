package subjectmerge

import (
	"fmt"
	"strings"
)

// SubjectHeader is the title of the row label column.
const SubjectHeader = "subject"

// DefaultLabelTemplate renders the raw roster ID as the row label.
const DefaultLabelTemplate = "{id}"

// RecordSource parses subject text into a record.
type RecordSource interface {
	Parse(text string) *Record
}

// BuildOptions are the operator's choices for one build.
type BuildOptions struct {
	IDColumn          string `json:"idColumn" yaml:"idColumn"`
	LabelTemplate     string `json:"labelTemplate" yaml:"labelTemplate"`
	IncludeCovariates bool   `json:"includeCovariates" yaml:"includeCovariates"`
}

// BuildInput gathers everything BuildTable reads.
type BuildInput struct {
	Roster  *Roster
	Pool    *Pool
	Options BuildOptions
	// Source parses subject files. Nil uses the default parser.
	Source RecordSource
}

// Table is the merged output.
type Table struct {
	Header []string
	// Rows hold the label cell followed by metric and covariate cells.
	Rows       [][]Value
	Metrics    []string
	Covariates []string
	Warnings   []string
	// Missing counts roster subjects without a file.
	Missing int
	// Unmatched counts uploaded files without a roster subject.
	Unmatched int
}

// BuildTable merges the pooled subject files in roster order.
func BuildTable(in BuildInput) (*Table, error) {
	if in.Roster == nil {
		return nil, ErrNoRoster
	}
	idCol := strings.TrimSpace(in.Options.IDColumn)
	if idCol == "" {
		return nil, ErrNoIDColumn
	}
	if !in.Roster.HasColumn(idCol) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, idCol)
	}
	ids := in.Roster.IDs(idCol)
	if len(ids) == 0 {
		return nil, ErrNoSubjects
	}
	source := in.Source
	if source == nil {
		source = NewParser(nil)
	}

	t := &Table{}
	records := make([]*Record, len(ids))
	resolved := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		f, ok := in.Pool.Resolve(id)
		if !ok {
			t.Missing++
			t.Warnings = append(t.Warnings, fmt.Sprintf("missing file for subject %s", id))
			continue
		}
		resolved[f.Name] = struct{}{}
		records[i] = source.Parse(f.Text())
	}
	t.Metrics = UnifyColumns(records)
	if in.Options.IncludeCovariates {
		t.Covariates = in.Roster.Covariates(idCol)
	}

	t.Header = make([]string, 0, 1+len(t.Metrics)+len(t.Covariates))
	t.Header = append(t.Header, SubjectHeader)
	t.Header = append(t.Header, t.Metrics...)
	t.Header = append(t.Header, t.Covariates...)

	t.Rows = make([][]Value, 0, len(ids))
	for i, id := range ids {
		row := make([]Value, 0, len(t.Header))
		row = append(row, Text(FormatLabel(in.Options.LabelTemplate, id)))
		for _, key := range t.Metrics {
			row = append(row, records[i].Get(key))
		}
		if len(t.Covariates) > 0 {
			src, _ := in.Roster.Row(idCol, id)
			for _, col := range t.Covariates {
				row = append(row, Text(src[col]))
			}
		}
		t.Rows = append(t.Rows, row)
	}

	for _, name := range unmatchedFiles(in.Pool, ids, resolved) {
		t.Unmatched++
		t.Warnings = append(t.Warnings, fmt.Sprintf("file %s has no matching roster ID", name))
	}
	for _, name := range duplicateColumns(t.Header) {
		t.Warnings = append(t.Warnings, fmt.Sprintf("column %s appears more than once in the header", name))
	}
	return t, nil
}

// FormatLabel fills {id} with the raw ID and {base} with the ID minus its
// extension. An empty template yields the raw ID.
func FormatLabel(template, id string) string {
	if strings.TrimSpace(template) == "" {
		return id
	}
	return strings.NewReplacer("{id}", id, "{base}", StripExt(id)).Replace(template)
}

// unmatchedFiles lists pooled files that were not resolved and whose base
// name matches no roster ID. IDs are kept both raw and stripped since an ID
// may itself contain a dot.
func unmatchedFiles(pool *Pool, ids []string, resolved map[string]struct{}) []string {
	known := make(map[string]struct{}, 2*len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
		known[StripExt(id)] = struct{}{}
	}
	var out []string
	for _, f := range pool.Files() {
		if _, ok := resolved[f.Name]; ok {
			continue
		}
		if _, ok := known[StripExt(f.Name)]; !ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// duplicateColumns returns header names that occur more than once, in order
// of their second appearance.
func duplicateColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	var out []string
	for _, name := range header {
		seen[name]++
		if seen[name] == 2 {
			out = append(out, name)
		}
	}
	return out
}

// Records renders the header and every row as strings.
func (t *Table) Records() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, cloneStrings(t.Header))
	for _, row := range t.Rows {
		out = append(out, renderRow(row))
	}
	return out
}

// Preview returns at most limit rendered data rows. A non-positive limit
// returns all of them.
func (t *Table) Preview(limit int) [][]string {
	if t == nil {
		return nil
	}
	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = renderRow(row)
	}
	return out
}

func renderRow(row []Value) []string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = v.String()
	}
	return cells
}
