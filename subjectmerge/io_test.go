package subjectmerge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "", DecodeText(nil))
	assert.Equal(t, "a: 1", DecodeText([]byte("a: 1")))
	assert.Equal(t, "a: 1", DecodeText([]byte("\xef\xbb\xbfa: 1")))
	// UTF-16 little endian with BOM.
	assert.Equal(t, "a:1", DecodeText([]byte{0xff, 0xfe, 'a', 0, ':', 0, '1', 0}))
	// UTF-16 big endian with BOM.
	assert.Equal(t, "a:1", DecodeText([]byte{0xfe, 0xff, 0, 'a', 0, ':', 0, '1'}))
}

func TestParseUTF16File(t *testing.T) {
	f := File{Name: "s.txt", Data: []byte{0xff, 0xfe, 'v', 0, ':', 0, ' ', 0, '7', 0}}
	rec := ParseRecord(f.Text())
	assert.Equal(t, Number(7), rec.Get("v"))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadFilesKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.txt", "a.txt", "b.txt", "e.txt", "d.txt"} {
		paths = append(paths, writeFile(t, dir, name, "k: "+name))
	}
	files, err := LoadFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, files, 5)
	for i, f := range files {
		assert.Equal(t, filepath.Base(paths[i]), f.Name)
		assert.Equal(t, "k: "+f.Name, string(f.Data))
	}
}

func TestLoadFilesMissing(t *testing.T) {
	_, err := LoadFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.txt")}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestLoadFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "a: 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadFiles(ctx, []string{p}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDirFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub-02.txt", "a: 2")
	writeFile(t, dir, "sub-01.STATS", "a: 1")
	writeFile(t, dir, "readme.md", "# nothing")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	files, err := LoadDir(context.Background(), dir, DefaultSubjectExtensions, 4)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"sub-01.STATS", "sub-02.txt"}, names)

	all, err := LoadDir(context.Background(), dir, nil, 4)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"), nil, 1)
	assert.Error(t, err)
}

func TestRecordCache(t *testing.T) {
	c := NewRecordCache(nil)
	first := c.Parse("a: 1\nb: 2")
	assert.Equal(t, 1, c.Len())

	first.Set("mutated", Number(9))
	second := c.Parse("a: 1\nb: 2")
	assert.Equal(t, []string{"a", "b"}, second.Keys)
	assert.Equal(t, 1, c.Len())

	c.Parse("a: 3")
	assert.Equal(t, 2, c.Len())
	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestRecordCacheHonoursMarkers(t *testing.T) {
	c := NewRecordCache([]string{"Section"})
	rec := c.Parse("Section: x\nMeasure: 5")
	assert.Equal(t, []string{"Measure"}, rec.Keys)
}
