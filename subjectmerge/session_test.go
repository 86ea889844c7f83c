package subjectmerge

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s := NewSession(DefaultConfig(), log.New(&buf, "", 0))
	return s, &buf
}

func TestSessionBuild(t *testing.T) {
	s, logs := newTestSession(t)
	_, err := s.SetRoster("participants.tsv", []byte("participant_id\tage\tsex\nsub-001\t40\tF\nsub-002\t41\tM\n"))
	require.NoError(t, err)
	s.SetFiles([]File{
		{Name: "sub-001.txt", Data: []byte("Left-Hippocampus  3500\nRight-Hippocampus 3600\n")},
		{Name: "sub-077.txt", Data: []byte("x: 1")},
	})
	assert.Equal(t, []string{"participant_id", "age", "sex"}, s.Columns())
	assert.Equal(t, "participant_id", s.SuggestIDColumn())
	assert.Equal(t, 2, s.FileCount())

	table, err := s.Build(context.Background(), BuildOptions{IDColumn: "participant_id", IncludeCovariates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"subject", "Left-Hippocampus", "Right-Hippocampus", "age", "sex"}, table.Header)
	assert.Equal(t, [][]string{
		{"sub-001", "3500", "3600", "40", "F"},
		{"sub-002", "", "", "41", "M"},
	}, table.Preview(0))
	assert.Equal(t, []string{
		"missing file for subject sub-002",
		"file sub-077.txt has no matching roster ID",
	}, table.Warnings)

	out := logs.String()
	assert.Contains(t, out, "[WARN] missing file for subject sub-002")
	assert.Contains(t, out, "[WARN] file sub-077.txt has no matching roster ID")
	assert.Contains(t, out, "Built 2 subjects")
}

func TestSessionBuildUsesConfiguredTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LabelTemplate = "{base}"
	s := NewSession(cfg, nil)
	_, err := s.SetRoster("r.csv", []byte("id\ns1.txt\n"))
	require.NoError(t, err)
	table, err := s.Build(context.Background(), BuildOptions{IDColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, "s1", table.Rows[0][0].String())
}

func TestSessionBuildWithoutRoster(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Build(context.Background(), BuildOptions{IDColumn: "id"})
	assert.True(t, errors.Is(err, ErrNoRoster))
	assert.Nil(t, s.Columns())
	assert.Equal(t, "", s.SuggestIDColumn())
}

func TestSessionBuildCancelled(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Build(ctx, BuildOptions{IDColumn: "id"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionRosterErrorKeepsPrevious(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.SetRoster("r.csv", []byte("id\na\n"))
	require.NoError(t, err)
	_, err = s.SetRoster("r.csv", nil)
	assert.Error(t, err)
	assert.Equal(t, []string{"id"}, s.Columns())
}

func TestSessionUpdateConfigResetsMarkers(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.SetRoster("r.csv", []byte("id\na\n"))
	require.NoError(t, err)
	s.SetFiles([]File{{Name: "a.txt", Data: []byte("Measure: 1\nTotal: 2")}})

	table, err := s.Build(context.Background(), BuildOptions{IDColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"subject", "Total"}, table.Header)

	cfg := s.Config()
	cfg.SectionMarkers = []string{}
	applied := s.UpdateConfig(cfg)
	assert.Empty(t, applied.SectionMarkers)

	table, err = s.Build(context.Background(), BuildOptions{IDColumn: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"subject", "Measure", "Total"}, table.Header)
}

func TestSessionConcurrentBuilds(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.SetRoster("r.csv", []byte("id\na\nb\n"))
	require.NoError(t, err)
	s.SetFiles([]File{{Name: "a.txt", Data: []byte("x: 1")}, {Name: "b.txt", Data: []byte("y: 2")}})

	var wg sync.WaitGroup
	headers := make([][]string, 8)
	for i := range headers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := s.Build(context.Background(), BuildOptions{IDColumn: "id"})
			if err == nil {
				headers[i] = table.Header
			}
		}(i)
	}
	wg.Wait()
	for _, h := range headers {
		assert.Equal(t, []string{"subject", "x", "y"}, h)
	}
}
