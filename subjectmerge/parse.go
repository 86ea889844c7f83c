package subjectmerge

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultSectionMarkers lists the labels that open a section in stats
// summaries ("Measure: ...") and carry no metric of their own.
var DefaultSectionMarkers = []string{"Measure"}

var (
	multiSpace = regexp.MustCompile(`\s{2,}`)
	anySpace   = regexp.MustCompile(`\s+`)
)

// Record holds the metrics parsed from one subject file.
type Record struct {
	// Keys lists metric names in the order they first appeared.
	Keys []string
	// Values maps every metric name to its last seen value.
	Values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{Values: make(map[string]Value)}
}

// Set stores value under key, recording the key's discovery position the
// first time it is seen.
func (r *Record) Set(key string, value Value) {
	if _, seen := r.Values[key]; !seen {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = value
}

// Get returns the value for key, or Empty when the record lacks it.
func (r *Record) Get(key string) Value {
	if r == nil {
		return Empty()
	}
	return r.Values[key]
}

// Len returns the number of distinct metrics in the record.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Keys:   cloneStrings(r.Keys),
		Values: make(map[string]Value, len(r.Values)),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// orphanKeys returns keys present in Values but missing from Keys, sorted.
func (r *Record) orphanKeys() []string {
	if len(r.Values) == len(r.Keys) {
		return nil
	}
	ordered := make(map[string]struct{}, len(r.Keys))
	for _, k := range r.Keys {
		ordered[k] = struct{}{}
	}
	var out []string
	for k := range r.Values {
		if _, ok := ordered[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Parser turns subject summary text into records.
type Parser struct {
	markers []string
}

// NewParser builds a parser that skips lines opening one of the given
// sections. A nil slice selects DefaultSectionMarkers.
func NewParser(markers []string) *Parser {
	if markers == nil {
		markers = DefaultSectionMarkers
	}
	clean := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m != "" {
			clean = append(clean, strings.ToLower(m)+":")
		}
	}
	return &Parser{markers: clean}
}

// ParseRecord parses text with the default section markers.
func ParseRecord(text string) *Record {
	return NewParser(nil).Parse(text)
}

// Parse reads text line by line. Lines that cannot be split into a key and a
// value are skipped.
func (p *Parser) Parse(text string) *Record {
	rec := NewRecord()
	for _, line := range splitNonEmptyLines(text) {
		if p.isSectionMarker(line) {
			continue
		}
		key, raw, ok := splitLine(line)
		if !ok {
			continue
		}
		rec.Set(key, Coerce(raw))
	}
	return rec
}

func (p *Parser) isSectionMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range p.markers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return false
}

// splitLine extracts a key and raw value from one trimmed line.
func splitLine(line string) (string, string, bool) {
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			return "", "", false
		}
		return key, strings.TrimSpace(line[idx+1:]), true
	}
	fields := splitFields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	last := len(fields) - 1
	return strings.Join(fields[:last], " "), fields[last], true
}

// splitFields tries tab, comma, wide gaps and finally any whitespace, keeping
// the first split that produces more than one non-empty field.
func splitFields(line string) []string {
	splitters := []func(string) []string{
		func(s string) []string { return strings.Split(s, "\t") },
		func(s string) []string { return strings.Split(s, ",") },
		func(s string) []string { return multiSpace.Split(s, -1) },
		func(s string) []string { return anySpace.Split(s, -1) },
	}
	for _, split := range splitters {
		fields := nonEmptyFields(split(line))
		if len(fields) > 1 {
			return fields
		}
	}
	return nil
}

func nonEmptyFields(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitNonEmptyLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
