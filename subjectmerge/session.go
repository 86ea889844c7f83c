package subjectmerge

import (
	"context"
	"log"
	"sync"
)

// Session holds the operator's current roster and file pool. Builds are
// serialized; the roster and pool are replaced wholesale on upload.
type Session struct {
	cfgMu sync.RWMutex
	cfg   Config

	stateMu sync.RWMutex
	roster  *Roster
	pool    *Pool

	buildMu sync.Mutex
	cache   *RecordCache

	logger *log.Logger
}

// NewSession constructs a session with the given configuration. logger may be nil.
func NewSession(cfg Config, logger *log.Logger) *Session {
	cfg.ApplyDefaults()
	return &Session{
		cfg:    cfg,
		pool:   NewPool(nil),
		cache:  NewRecordCache(cfg.SectionMarkers),
		logger: logger,
	}
}

// Config returns a copy of the current configuration.
func (s *Session) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration. Changing the section markers
// starts a fresh parse cache.
func (s *Session) UpdateConfig(cfg Config) Config {
	cfg.ApplyDefaults()
	s.cfgMu.Lock()
	s.cfg = cfg.Clone()
	s.cfgMu.Unlock()

	s.buildMu.Lock()
	s.cache = NewRecordCache(cfg.SectionMarkers)
	s.buildMu.Unlock()
	return cfg
}

// SetRoster parses and installs a new roster.
func (s *Session) SetRoster(name string, data []byte) (*Roster, error) {
	roster, err := ReadRoster(name, data)
	if err != nil {
		return nil, err
	}
	s.stateMu.Lock()
	s.roster = roster
	s.stateMu.Unlock()
	s.logf("Loaded roster %s (%d rows, %d columns)", name, len(roster.Rows), len(roster.Columns))
	return roster, nil
}

// Roster returns the current roster, or nil.
func (s *Session) Roster() *Roster {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.roster
}

// Columns lists the current roster's columns.
func (s *Session) Columns() []string {
	r := s.Roster()
	if r == nil {
		return nil
	}
	return cloneStrings(r.Columns)
}

// SuggestIDColumn proposes an identifier column for the current roster.
func (s *Session) SuggestIDColumn() string {
	return s.Roster().SuggestIDColumn()
}

// SetFiles replaces the subject file pool.
func (s *Session) SetFiles(files []File) {
	pool := NewPool(files)
	s.stateMu.Lock()
	s.pool = pool
	s.stateMu.Unlock()
	s.logf("Loaded %d subject files", len(files))
}

// FileCount returns the number of pooled subject files.
func (s *Session) FileCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.pool.Len()
}

// Build merges the current roster and pool. Concurrent callers wait for the
// build in flight to finish.
func (s *Session) Build(ctx context.Context, opts BuildOptions) (*Table, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.stateMu.RLock()
	roster, pool := s.roster, s.pool
	s.stateMu.RUnlock()

	if opts.LabelTemplate == "" {
		opts.LabelTemplate = s.Config().LabelTemplate
	}
	t, err := BuildTable(BuildInput{Roster: roster, Pool: pool, Options: opts, Source: s.cache})
	if err != nil {
		s.logf("Build failed: %v", err)
		return nil, err
	}
	for _, w := range t.Warnings {
		s.logf("[WARN] %s", w)
	}
	s.logf("Built %d subjects x %d columns (%d warnings)", len(t.Rows), len(t.Header), len(t.Warnings))
	return t, nil
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
