package app

import "yashubustudio/subjectmerge/subjectmerge"

const (
	fyneAppID         = "studio.yashubu.subjectmerge"
	defaultConfigFile = "config.json"

	maxLogLines     = 200
	sampleMaxRunes  = 20
	cellMaxRunes    = 40
	labelColWidth   = 180
	metricColWidth  = 130
	headerRowHeight = 32
)

// columnChoice is one entry of the identifier column selector.
type columnChoice struct {
	Column string
	Label  string
}

// previewData is the rendered grid shown in the result table.
type previewData struct {
	Header []string
	Rows   [][]string
	// Hidden counts rows left out by the preview cap.
	Hidden int
}

func newPreviewData(t *subjectmerge.Table, limit int) previewData {
	if t == nil {
		return previewData{}
	}
	rows := t.Preview(limit)
	for _, row := range rows {
		for i, cell := range row {
			row[i] = truncateSampleValue(cell, cellMaxRunes)
		}
	}
	return previewData{
		Header: append([]string(nil), t.Header...),
		Rows:   rows,
		Hidden: len(t.Rows) - len(rows),
	}
}

func (p previewData) size() (int, int) {
	if len(p.Header) == 0 {
		return 0, 0
	}
	return len(p.Rows) + 1, len(p.Header)
}

func (p previewData) cell(row, col int) string {
	if row == 0 {
		if col < len(p.Header) {
			return p.Header[col]
		}
		return ""
	}
	if row-1 >= len(p.Rows) || col >= len(p.Rows[row-1]) {
		return ""
	}
	return p.Rows[row-1][col]
}
