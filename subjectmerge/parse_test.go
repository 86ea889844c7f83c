package subjectmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColonLines(t *testing.T) {
	rec := ParseRecord("EstimatedTotalIntraCranialVol: 1500000\nBrainSegVol: 1100000.5\nEstimatedTotalIntraCranialVol: 1499999\n")

	assert.Equal(t, []string{"EstimatedTotalIntraCranialVol", "BrainSegVol"}, rec.Keys)
	assert.Equal(t, Number(1499999), rec.Get("EstimatedTotalIntraCranialVol"))
	assert.Equal(t, Number(1100000.5), rec.Get("BrainSegVol"))
}

func TestParseSplitsAtFirstColon(t *testing.T) {
	rec := ParseRecord("acquired: 2021-03-04 10:22:01")
	assert.Equal(t, Text("2021-03-04 10:22:01"), rec.Get("acquired"))
}

func TestParseDelimitedLines(t *testing.T) {
	cases := []struct {
		name  string
		line  string
		key   string
		value Value
	}{
		{"tab", "Left-Hippocampus\t3500", "Left-Hippocampus", Number(3500)},
		{"tab multi field", "Left\tHippocampus\t3500", "Left Hippocampus", Number(3500)},
		{"comma", "Left-Amygdala,1500.25", "Left-Amygdala", Number(1500.25)},
		{"comma multi field", "lh,thickness, 2.5", "lh thickness", Number(2.5)},
		{"wide gap", "Left Lateral Ventricle    7000", "Left Lateral Ventricle", Number(7000)},
		{"single space", "Right-Hippocampus 3600", "Right-Hippocampus", Number(3600)},
		{"text value", "scanner\tPrisma", "scanner", Text("Prisma")},
		{"negative", "asymmetry\t-0.125", "asymmetry", Number(-0.125)},
		{"exponent", "volume 1.5e3", "volume", Number(1500)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ParseRecord(tc.line)
			require.Equal(t, []string{tc.key}, rec.Keys)
			assert.Equal(t, tc.value, rec.Get(tc.key))
		})
	}
}

func TestParseSkipsUnsplittableAndMarkerLines(t *testing.T) {
	text := "Measure: BrainSeg, BrainSegVol\n\n   \nlonelyword\n: orphan value\nWM-hypointensities  1200\n"
	rec := ParseRecord(text)

	assert.Equal(t, []string{"WM-hypointensities"}, rec.Keys)
	assert.Equal(t, Number(1200), rec.Get("WM-hypointensities"))
}

func TestParseMarkerIsCaseInsensitive(t *testing.T) {
	rec := ParseRecord("MEASURE: Cortex\nmeasure:x\nMeasured: 3")
	assert.Equal(t, []string{"Measured"}, rec.Keys)
}

func TestParseCustomMarkers(t *testing.T) {
	p := NewParser([]string{"Table", " "})
	rec := p.Parse("table: volumes\nMeasure: 4")
	assert.Equal(t, []string{"Measure"}, rec.Keys)
	assert.Equal(t, Number(4), rec.Get("Measure"))
}

func TestParseEmptyValueKeepsKey(t *testing.T) {
	rec := ParseRecord("notes:\nage: 41")
	assert.Equal(t, []string{"notes", "age"}, rec.Keys)
	assert.True(t, rec.Get("notes").IsEmpty())
}

func TestParseHandlesCRLF(t *testing.T) {
	rec := ParseRecord("a: 1\r\nb: 2\rc: 3")
	assert.Equal(t, []string{"a", "b", "c"}, rec.Keys)
}

func TestParseTwoLineTableIsLineByLine(t *testing.T) {
	// Header/value pairs are not matched across lines.
	rec := ParseRecord("Left-Hippocampus\tRight-Hippocampus\n3500\t3600")
	assert.Equal(t, []string{"Left-Hippocampus", "3500"}, rec.Keys)
	assert.Equal(t, Text("Right-Hippocampus"), rec.Get("Left-Hippocampus"))
	assert.Equal(t, Number(3600), rec.Get("3500"))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, Empty(), Coerce("   "))
	assert.Equal(t, Number(42), Coerce(" 42 "))
	assert.Equal(t, Text("NaN"), Coerce("NaN"))
	assert.Equal(t, Text("Inf"), Coerce("Inf"))
	assert.Equal(t, Text("12 mm"), Coerce("12 mm"))
	assert.Equal(t, Text("1e999"), Coerce("1e999"))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "3500", Number(3500).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "-0.25", Number(-0.25).String())
	assert.Equal(t, "", Empty().String())
	assert.Equal(t, "M", Text("M").String())
	assert.Equal(t, "0", Number(0).String())
	assert.Equal(t, "123456789012345680000", Number(1.2345678901234568e20).String())
	assert.Equal(t, "1.5e+300", Number(1.5e300).String())
	assert.Equal(t, "-1e+21", Number(-1e21).String())
	assert.Equal(t, "1e-07", Number(1e-7).String())
	assert.Equal(t, "1e-09", Number(1e-9).String())
	assert.Equal(t, "0.000001", Number(1e-6).String())

	f, ok := Number(2).Float()
	assert.True(t, ok)
	assert.Equal(t, 2.0, f)
	_, ok = Text("x").Float()
	assert.False(t, ok)
}

func TestRecordClone(t *testing.T) {
	rec := ParseRecord("a: 1")
	cp := rec.Clone()
	cp.Set("b", Number(2))
	assert.Equal(t, 1, rec.Len())
	assert.Equal(t, 2, cp.Len())
}
