package app

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"yashubustudio/subjectmerge/subjectmerge"
)

var printer = message.NewPrinter(language.Japanese)

// buildColumnChoices labels each roster column with its position and the
// first non-blank value found under it.
func buildColumnChoices(r *subjectmerge.Roster) []columnChoice {
	if r == nil {
		return nil
	}
	choices := make([]columnChoice, 0, len(r.Columns))
	for i, col := range r.Columns {
		header := col
		if header == "" {
			header = fmt.Sprintf("列%d", i+1)
		}
		label := fmt.Sprintf("[%d] %s", i+1, header)
		if sample := columnSample(r, col); sample != "" {
			label = fmt.Sprintf("%s (例: %s)", label, sample)
		}
		choices = append(choices, columnChoice{Column: col, Label: label})
	}
	return choices
}

func columnSample(r *subjectmerge.Roster, col string) string {
	for _, row := range r.Rows {
		val := strings.TrimSpace(row[col])
		if val != "" {
			return truncateSampleValue(val, sampleMaxRunes)
		}
	}
	return ""
}

func choiceLabels(choices []columnChoice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Label
	}
	return out
}

func choiceFor(choices []columnChoice, column string) (columnChoice, bool) {
	for _, c := range choices {
		if c.Column == column {
			return c, true
		}
	}
	return columnChoice{}, false
}

func choiceByLabel(choices []columnChoice, label string) (columnChoice, bool) {
	for _, c := range choices {
		if c.Label == label {
			return c, true
		}
	}
	return columnChoice{}, false
}

func truncateSampleValue(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

func formatBuildSummary(t *subjectmerge.Table) string {
	if t == nil {
		return ""
	}
	return printer.Sprintf("完了 %d件 / 指標 %d列 / 欠損 %d件 / 未対応ファイル %d件",
		len(t.Rows), len(t.Metrics), t.Missing, t.Unmatched)
}

func formatFileSummary(n int) string {
	return printer.Sprintf("被験者ファイル: %d件", n)
}
