package subjectmerge

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
)

// RecordCache memoizes parsed records by content so rebuilding with new
// options does not reparse unchanged files. It lives only in memory.
type RecordCache struct {
	parser *Parser
	salt   string

	mu sync.RWMutex
	m  map[string]*Record
}

// NewRecordCache wraps a parser configured with the given section markers.
func NewRecordCache(markers []string) *RecordCache {
	p := NewParser(markers)
	return &RecordCache{
		parser: p,
		salt:   strings.Join(p.markers, "\x00"),
		m:      make(map[string]*Record),
	}
}

// Parse returns the cached record for text, parsing it on a miss.
func (c *RecordCache) Parse(text string) *Record {
	key := c.key(text)
	if rec, ok := c.get(key); ok {
		return rec.Clone()
	}
	rec := c.parser.Parse(text)
	c.put(key, rec.Clone())
	return rec
}

// Len returns the number of cached records.
func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Reset drops every cached record.
func (c *RecordCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]*Record)
}

func (c *RecordCache) get(key string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *RecordCache) put(key string, rec *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = rec
}

func (c *RecordCache) key(text string) string {
	h := sha1.Sum([]byte(c.salt + "|" + text))
	return hex.EncodeToString(h[:])
}
